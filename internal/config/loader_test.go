package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/formfill/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then drafting is on and resolution is sequential", func() {
			convey.So(cfg.AutoDraftOpenEnded, convey.ShouldBeTrue)
			convey.So(cfg.ResolveConcurrency, convey.ShouldEqual, 1)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreSQLite)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it matches New()", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(*cfg, convey.ShouldResemble, *config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("FORMFILL_ADDR", ":9000")
			t.Setenv("FORMFILL_AUTO_DRAFT_OPEN_ENDED", "false")
			t.Setenv("FORMFILL_RESOLVE_CONCURRENCY", "4")
			t.Setenv("FORMFILL_STORE_DRIVER", "memory")
			t.Setenv("FORMFILL_BACKEND_URL", "http://localhost:8000")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9000")
				convey.So(cfg.AutoDraftOpenEnded, convey.ShouldBeFalse)
				convey.So(cfg.ResolveConcurrency, convey.ShouldEqual, 4)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.BackendURL, convey.ShouldEqual, "http://localhost:8000")
			})
		})

		convey.Convey("When loading config with a YAML file and env on top", func() {
			path := writeConfigFile(t, `
# backend
addr: ":7000"
store_path: /tmp/answers.db
observer_workers: 5
gemini_model: gemini-2.0-flash
`)
			t.Setenv("FORMFILL_CONFIG", path)
			t.Setenv("FORMFILL_OBSERVER_WORKERS", "3")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the file is applied and env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.StorePath, convey.ShouldEqual, "/tmp/answers.db")
				convey.So(cfg.GeminiModel, convey.ShouldEqual, "gemini-2.0-flash")
				convey.So(cfg.ObserverWorkers, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When a file is passed explicitly", func() {
			path := writeConfigFile(t, "store_driver: memory\nheadless: false\n")

			cfg, err := config.LoadFile(ctx, path)

			convey.Convey("Then it is layered like the env-named file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.Headless, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			t.Setenv("FORMFILL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it reports a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file is not valid YAML", func() {
			t.Setenv("FORMFILL_CONFIG", writeConfigFile(t, "addr: [unclosed"))

			_, err := config.Load(ctx)

			convey.Convey("Then it reports a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a numeric variable is not a number", func() {
			t.Setenv("FORMFILL_OBSERVER_QUEUE_SIZE", "lots")

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = " " },
			"zero timeout":        func(c *config.Config) { c.HTTPTimeoutMS = 0 },
			"zero concurrency":    func(c *config.Config) { c.ResolveConcurrency = 0 },
			"zero queue":          func(c *config.Config) { c.ObserverQueueSize = 0 },
			"zero workers":        func(c *config.Config) { c.ObserverWorkers = 0 },
			"unknown driver":      func(c *config.Config) { c.StoreDriver = "redis" },
			"sqlite without path": func(c *config.Config) { c.StorePath = "" },
			"relative backend":    func(c *config.Config) { c.BackendURL = "localhost:8000/api" },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)

			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"FORMFILL_CONFIG", "FORMFILL_ADDR", "FORMFILL_AUTO_DRAFT_OPEN_ENDED", "FORMFILL_RESOLVE_CONCURRENCY",
		"FORMFILL_STORE_DRIVER", "FORMFILL_BACKEND_URL", "FORMFILL_OBSERVER_WORKERS", "FORMFILL_OBSERVER_QUEUE_SIZE",
	} {
		if _, ok := os.LookupEnv(name); ok {
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formfill.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
