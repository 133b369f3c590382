package service_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/eraquiz/internal/adapters/candidates"
	"github.com/okian/eraquiz/internal/adapters/repository"
	service "github.com/okian/eraquiz/internal/app"
	"github.com/okian/eraquiz/internal/domain/clock"
	"github.com/okian/eraquiz/internal/domain/model"
	"github.com/okian/eraquiz/internal/domain/selection"
	"github.com/okian/eraquiz/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
	logger.SetLevel(slog.LevelError)
}

func TestServiceIntegration(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) repository.Store
	}{
		{"memory", func(*testing.T) repository.Store { return repository.NewMemoryStore() }},
		{"badger", func(*testing.T) repository.Store {
			s, err := repository.OpenBadger("")
			if err != nil {
				t.Fatalf("open badger: %v", err)
			}
			return s
		}},
		{"sqlite", func(t *testing.T) repository.Store {
			s, err := repository.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "quiz.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		}},
	}

	for _, b := range backends {
		Convey("Given the built-in catalog and a "+b.name+" store", t, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			svc := service.New(
				service.WithSource(candidates.NewCatalogSource("")),
				service.WithStore(b.open(t)),
				service.WithClock(clock.Fixed(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))),
				service.WithPermuter(selection.NewPermuter(42)),
				service.WithFiguresPerSession(20),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("When a whole session is played with one revision", func() {
				view, err := svc.StartSession(ctx)
				So(err, ShouldBeNil)
				id := view.ID

				recognized := 0
				for i := 0; i < view.Total; i++ {
					v, err := svc.SubmitAnswer(ctx, id, true)
					So(err, ShouldBeNil)
					So(v.Status, ShouldEqual, model.StatusReveal)
					if i%3 == 0 {
						_, err = svc.ChangeAnswer(ctx, id)
						So(err, ShouldBeNil)
						_, err = svc.SubmitAnswer(ctx, id, false)
						So(err, ShouldBeNil)
					} else {
						recognized++
					}
					_, err = svc.Advance(ctx, id)
					So(err, ShouldBeNil)
				}

				res, err := svc.Results(ctx, id)

				Convey("Then the results should satisfy the engine bounds", func() {
					So(err, ShouldBeNil)
					So(res.Answers, ShouldHaveLength, view.Total)
					So(res.Metrics.OverallRate, ShouldEqual, (recognized*100+view.Total/2)/view.Total)
					So(res.Metrics.Breadth, ShouldBeBetweenOrEqual, 0, len(res.Distribution))
					for _, p := range res.Distribution {
						So(p.Rate, ShouldBeBetweenOrEqual, 0.0, 1.0)
						So(p.Year, ShouldBeBetweenOrEqual, 1950, 2024)
					}
					So(res.Metrics.PeakDecade, ShouldEndWith, "s")
				})

				Convey("And the stored session should resume in results", func() {
					v, err := svc.Session(ctx, id)
					So(err, ShouldBeNil)
					So(v.Status, ShouldEqual, model.StatusResults)
					So(v.Results, ShouldNotBeNil)
					So(*v.Results, ShouldResemble, res)
				})
			})
		})
	}
}
