package state

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"remtorpx/config"
	"remtorpx/transform"
)

func TestEnvFromContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		env := EnvFromContext(ContextWithEnv(context.Background()))
		if env == nil {
			t.Fatal("EnvFromContext() returned nil")
		}
		if env.start.IsZero() {
			t.Error("Environment start time not set")
		}
	})

	t.Run("panic on missing env", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic when env not in context")
			}
		}()
		EnvFromContext(context.Background())
	})

	t.Run("shared between derived contexts", func(t *testing.T) {
		ctx := ContextWithEnv(context.Background())
		child, cancel := context.WithCancel(ctx)
		defer cancel()

		EnvFromContext(ctx).Platform = "ios"
		if got := EnvFromContext(child).Platform; got != "ios" {
			t.Errorf("Platform = %q in derived context, want %q", got, "ios")
		}
	})
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := &LocalEnv{start: time.Now().Add(-time.Second)}
	if uptime := env.Uptime(); uptime < time.Second || uptime > time.Minute {
		t.Errorf("Uptime() = %v, want about a second", uptime)
	}
}

func TestLocalEnv_RedirectStdLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	env := &LocalEnv{Log: zap.New(core)}

	env.RedirectStdLog()
	log.Print("from standard logger")
	env.RestoreStdLog()
	log.Print("after restore")

	entries := logs.FilterMessage("from standard logger").All()
	if len(entries) != 1 {
		t.Errorf("redirected entries = %d, want 1", len(entries))
	}
	if logs.FilterMessage("after restore").Len() != 0 {
		t.Error("standard logger still redirected after restore")
	}
}

func TestLocalEnv_NilLogger(t *testing.T) {
	env := &LocalEnv{}

	// neither should panic
	env.RedirectStdLog()
	env.RestoreStdLog()
	if env.restoreStdLog != nil {
		t.Error("Expected restoreStdLog to remain nil")
	}
}

func TestLocalEnv_Processor(t *testing.T) {
	t.Run("no configuration", func(t *testing.T) {
		env := newLocalEnv()
		if _, err := env.Processor(); err == nil {
			t.Error("Expected error without configuration")
		}
	})

	t.Run("platform override", func(t *testing.T) {
		env := newLocalEnv()
		env.Cfg = &config.Config{Version: 1, Rewrite: config.DefaultRewriteConfig()}
		env.Cfg.Rewrite.Platform = "ios"
		env.Platform = "android"
		env.Log = zaptest.NewLogger(t)

		p, err := env.Processor()
		if err != nil {
			t.Fatalf("Processor() error = %v", err)
		}
		again, err := env.Processor()
		if err != nil || again != p {
			t.Error("Processor() must be created once")
		}
		if env.Cfg.Rewrite.Platform != "ios" {
			t.Error("Configuration must not be modified")
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		env := newLocalEnv()
		env.Cfg = &config.Config{Version: 1, Rewrite: config.DefaultRewriteConfig()}
		env.Cfg.Rewrite.ScaleFactor = -1

		_, err := env.Processor()
		if !errors.Is(err, transform.ErrInvalidConfiguration) {
			t.Errorf("Processor() error = %v, want ErrInvalidConfiguration", err)
		}
		if env.processor != nil {
			t.Error("Processor must not be cached on error")
		}
	})
}
