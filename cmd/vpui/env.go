package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vpui/pkg/config"
)

type envKey struct{}

// localEnv keeps what every subcommand needs in a single place.
type localEnv struct {
	Cfg *config.Config
	Log *zap.Logger

	start time.Time
}

func envFromContext(ctx context.Context) *localEnv {
	if env, ok := ctx.Value(envKey{}).(*localEnv); ok {
		return env
	}
	panic("localEnv not found in context")
}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &localEnv{start: time.Now(), Log: zap.NewNop()})
}

func (e *localEnv) uptime() time.Duration { return time.Since(e.start) }
