package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/eraquiz/internal/domain/model"
)

func sampleSession(id string) model.Session {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return model.Session{
		ID:     id,
		Status: model.StatusReveal,
		Figures: []model.Figure{
			{ID: "p1", DisplayName: "Ada", RelevanceWindow: model.Window{Start: 1980, End: 1995}, TopWorks: []string{"One"}},
			{ID: "p2", DisplayName: "Bo", RelevanceWindow: model.Window{Start: 2001, End: 2010}},
		},
		CurrentIndex: 0,
		Answers: map[string]model.Answer{
			"p1": {FigureID: "p1", Recognized: true, Timestamp: created.Add(time.Minute)},
		},
		CreatedAt: created,
	}
}

func storeContract(newStore func() Store) {
	ctx := context.Background()
	store := newStore()
	Reset(func() { _ = store.Close() })

	Convey("When getting an unknown session", func() {
		_, err := store.Get(ctx, "missing")

		Convey("Then it should return ErrNotFound", func() {
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("When a session is put and read back", func() {
		in := sampleSession("s1")
		So(store.Put(ctx, in), ShouldBeNil)
		out, err := store.Get(ctx, "s1")

		Convey("Then it should round-trip every field", func() {
			So(err, ShouldBeNil)
			So(out.ID, ShouldEqual, in.ID)
			So(out.Status, ShouldEqual, model.StatusReveal)
			So(out.Figures, ShouldResemble, in.Figures)
			So(out.Answers["p1"].Recognized, ShouldBeTrue)
			So(out.Answers["p1"].Timestamp.Equal(in.Answers["p1"].Timestamp), ShouldBeTrue)
			So(out.CreatedAt.Equal(in.CreatedAt), ShouldBeTrue)
			So(out.CompletedAt, ShouldBeNil)
			So(store.Count(ctx), ShouldEqual, 1)
		})

		Convey("And a later put should replace it", func() {
			done := in.Clone()
			done.Status = model.StatusResults
			done.CurrentIndex = 2
			at := in.CreatedAt.Add(time.Hour)
			done.CompletedAt = &at
			So(store.Put(ctx, done), ShouldBeNil)

			got, err := store.Get(ctx, "s1")
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, model.StatusResults)
			So(got.CurrentIndex, ShouldEqual, 2)
			So(got.CompletedAt, ShouldNotBeNil)
			So(got.CompletedAt.Equal(at), ShouldBeTrue)
			So(store.Count(ctx), ShouldEqual, 1)
		})

		Convey("And mutating the returned answers should not leak into the store", func() {
			out.Answers["p2"] = model.Answer{FigureID: "p2"}
			again, err := store.Get(ctx, "s1")
			So(err, ShouldBeNil)
			So(again.Answers, ShouldHaveLength, 1)
		})
	})

	Convey("When a session has no id", func() {
		err := store.Put(ctx, model.Session{})

		Convey("Then it should be rejected", func() {
			So(errors.Is(err, ErrInvalidSession), ShouldBeTrue)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		storeContract(func() Store { return NewMemoryStore() })
	})
}

func TestBadgerStore(t *testing.T) {
	Convey("Given an in-memory badger store", t, func() {
		storeContract(func() Store {
			s, err := OpenBadger("")
			So(err, ShouldBeNil)
			return s
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite store in a temp dir", t, func() {
		dir := t.TempDir()
		storeContract(func() Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(dir, "sessions.db"))
			So(err, ShouldBeNil)
			return s
		})
	})

	Convey("Given an empty sqlite path", t, func() {
		_, err := OpenSQLite(context.Background(), " ")

		Convey("Then opening should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given the store factory", t, func() {
		ctx := context.Background()

		Convey("When opening the memory backend", func() {
			s, err := Open(ctx, BackendMemory, "", WithMetricsUpdateInterval(10*time.Millisecond))
			So(err, ShouldBeNil)
			defer func() { _ = s.Close() }()

			Convey("Then it should be instrumented and usable", func() {
				So(s.Put(ctx, sampleSession("x")), ShouldBeNil)
				_, err := s.Get(ctx, "x")
				So(err, ShouldBeNil)
				_, err = s.Get(ctx, "y")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When opening the sqlite backend", func() {
			s, err := Open(ctx, BackendSQLite, filepath.Join(t.TempDir(), "q.db"))

			Convey("Then it should succeed", func() {
				So(err, ShouldBeNil)
				So(s.Close(), ShouldBeNil)
			})
		})

		Convey("When opening an unknown backend", func() {
			_, err := Open(ctx, "redis", "")

			Convey("Then it should return ErrUnknownBackend", func() {
				So(errors.Is(err, ErrUnknownBackend), ShouldBeTrue)
			})
		})
	})
}

func TestMemoryStoreConcurrency(t *testing.T) {
	Convey("Given a memory store under concurrent writers", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s := sampleSession("c")
				s.CurrentIndex = i % 2
				_ = store.Put(ctx, s)
				_, _ = store.Get(ctx, "c")
			}()
		}
		wg.Wait()

		Convey("Then one record should remain", func() {
			So(store.Count(ctx), ShouldEqual, 1)
		})
	})
}
