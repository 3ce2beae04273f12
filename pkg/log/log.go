package log

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewContextWithLogger attaches a console logger to ctx.
// Components pull it back out with FromCtx; contexts without a logger get
// the zerolog disabled logger, so library code never needs a nil check.
func NewContextWithLogger(ctx context.Context, debug bool) context.Context {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.DateTime,
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}

// FromCtx returns the logger attached to ctx.
func FromCtx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
