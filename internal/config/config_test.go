package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/eraquiz/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.CandidateSource, convey.ShouldEqual, config.SourceCatalog)
			convey.So(cfg.FiguresPerSession, convey.ShouldEqual, 40)
			convey.So(cfg.MinFigures, convey.ShouldEqual, 5)
			convey.So(cfg.PoolTTL(), convey.ShouldEqual, time.Hour)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with unusable settings", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"unknown level", func(c *config.Config) { c.LogLevel = "loud" }},
			{"unknown format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"unknown backend", func(c *config.Config) { c.StoreBackend = "redis" }},
			{"badger without path", func(c *config.Config) { c.StoreBackend = config.StoreBadger }},
			{"unknown source", func(c *config.Config) { c.CandidateSource = "wiki" }},
			{"tmdb without token", func(c *config.Config) { c.CandidateSource = config.SourceTMDB }},
			{"zero figures", func(c *config.Config) { c.FiguresPerSession = 0 }},
			{"zero min figures", func(c *config.Config) { c.MinFigures = 0 }},
			{"negative ttl", func(c *config.Config) { c.PoolTTLSeconds = -1 }},
			{"tmdb zero pages", func(c *config.Config) {
				c.CandidateSource = config.SourceTMDB
				c.TMDBToken = "t"
				c.TMDBPages = 0
			}},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("Then "+tc.name+" should be rejected", func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then a complete sqlite and tmdb setup should pass", func() {
			cfg := config.New()
			cfg.StoreBackend = config.StoreSQLite
			cfg.StorePath = "/tmp/quiz.db"
			cfg.CandidateSource = config.SourceTMDB
			cfg.TMDBToken = "token"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
