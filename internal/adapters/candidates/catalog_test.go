package candidates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/eraquiz/internal/domain/relevance"
)

func TestDefaultCatalog(t *testing.T) {
	Convey("Given the built-in catalog", t, func() {
		got, err := NewCatalogSource("").Candidates(context.Background())

		Convey("Then every entry should be complete and resolvable", func() {
			So(err, ShouldBeNil)
			So(len(got), ShouldBeGreaterThanOrEqualTo, 25)
			ids := map[string]bool{}
			for _, c := range got {
				So(c.ID, ShouldNotBeBlank)
				So(c.Name, ShouldNotBeBlank)
				So(ids[c.ID], ShouldBeFalse)
				ids[c.ID] = true

				_, err := relevance.FromCandidate(c, 2024)
				So(err, ShouldBeNil)
			}
		})
	})
}

func TestCatalogFile(t *testing.T) {
	Convey("Given a catalog file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		doc := `
figures:
  - id: a
    name: Alpha
    image: https://img/a.jpg
    category: music
    popularity: 12.5
    works:
      - {title: First, year: 1984}
      - {title: Undated}
`
		So(os.WriteFile(path, []byte(doc), 0o600), ShouldBeNil)

		got, err := NewCatalogSource(path).Candidates(context.Background())

		Convey("Then it should decode people and optional years", func() {
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].ImageRef, ShouldEqual, "https://img/a.jpg")
			So(got[0].Popularity, ShouldEqual, 12.5)
			So(got[0].Works, ShouldHaveLength, 2)
			So(*got[0].Works[0].Year, ShouldEqual, 1984)
			So(got[0].Works[1].Year, ShouldBeNil)
		})
	})

	Convey("Given a missing catalog file", t, func() {
		_, err := NewCatalogSource("/no/such/catalog.yaml").Candidates(context.Background())

		Convey("Then the source should be unavailable", func() {
			So(errors.Is(err, ErrSourceUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a malformed catalog", t, func() {
		_, err := ParseCatalog([]byte("figures: [unterminated"))

		Convey("Then it should report a bad catalog", func() {
			So(errors.Is(err, ErrBadCatalog), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewCatalogSource("").Candidates(ctx)

		Convey("Then it should return the context error", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
