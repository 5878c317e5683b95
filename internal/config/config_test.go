package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/depthchart/internal/config"
	"github.com/okian/depthchart/internal/domain/roster"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.RateLimitPerSecond, convey.ShouldEqual, 50)
			convey.So(cfg.RateLimitBurst, convey.ShouldEqual, 100)
			convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Games, convey.ShouldResemble, config.DefaultGames())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New()

		convey.Convey("When the store kind is unknown", func() {
			cfg.Store = "redis"

			convey.Convey("Then validation fails", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, `unknown store "redis"`)
			})
		})

		convey.Convey("When sqlite has no path", func() {
			cfg.Store = config.StoreSQLite
			cfg.SQLitePath = " "

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a game has no positions", func() {
			cfg.Games = []roster.Game{{Name: "NFL"}}

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "game NFL has no positions")
			})
		})

		convey.Convey("When there are no games", func() {
			cfg.Games = nil

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the rate limit is negative", func() {
			cfg.RateLimitBurst = -1

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})
	})
}
