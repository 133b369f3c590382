package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the default initializer", t, func() {
		So(Init(), ShouldBeNil)

		Convey("Then a global logger is available", func() {
			So(Get(), ShouldNotBeNil)
			So(Named("test"), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})
	})

	Convey("Given an unknown format", t, func() {
		err := InitWith(&bytes.Buffer{}, Format("xml"))

		Convey("Then initialization fails", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "xml")
		})
	})
}

func TestLoggerJSONOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, FormatJSON), ShouldBeNil)
		SetLevel(slog.LevelInfo)
		ctx := context.Background()

		Convey("When a record is logged with fields", func() {
			Get().With(String("component", "test")).Info(ctx, "session started", String("session", "abc"), Int("figures", 40))

			Convey("Then the fields and caller source are encoded", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "session started")
				So(rec["session"], ShouldEqual, "abc")
				So(rec["figures"], ShouldEqual, float64(40))
				So(rec["component"], ShouldEqual, "test")
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When a debug record is logged at info level", func() {
			Get().Debug(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the level is lowered to debug", func() {
			So(SetLevelString("DEBUG"), ShouldBeNil)
			Get().Debug(ctx, "visible")
			SetLevel(slog.LevelInfo)

			Convey("Then debug records are written", func() {
				So(strings.Contains(buf.String(), "visible"), ShouldBeTrue)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "info", "", "warn", "warning", "error", " Info "} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		SetLevel(slog.LevelInfo)
	})
}

func TestNop(t *testing.T) {
	Convey("Given the no-op logger", t, func() {
		l := Nop().Named("quiet").With(String("k", "v"))

		Convey("Then logging should not panic", func() {
			So(func() { l.Error(context.Background(), "dropped", Int("n", 1)) }, ShouldNotPanic)
		})
	})
}
