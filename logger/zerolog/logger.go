package zerolog

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/sreekar2307/clusterhealth/logger"
)

type Logger struct {
	logger *zerolog.Logger
}

func toZerologLevel(level logger.Level) zerolog.Level {
	switch level {
	case logger.DebugLevel:
		return zerolog.DebugLevel
	case logger.WarnLevel:
		return zerolog.WarnLevel
	case logger.ErrorLevel:
		return zerolog.ErrorLevel
	case logger.FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func NewLogger(w io.Writer, level logger.Level) logger.Logger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &Logger{logger: &zl}
}

// NewNopLogger discards everything; meant for tests.
func NewNopLogger() logger.Logger {
	zl := zerolog.Nop()
	return &Logger{logger: &zl}
}

func (l *Logger) Debug(ctx context.Context, s string, attrs ...logger.Attr) {
	l.log(ctx, zerolog.DebugLevel, s, attrs...)
}

func (l *Logger) Info(ctx context.Context, s string, attrs ...logger.Attr) {
	l.log(ctx, zerolog.InfoLevel, s, attrs...)
}

func (l *Logger) Warn(ctx context.Context, s string, attrs ...logger.Attr) {
	l.log(ctx, zerolog.WarnLevel, s, attrs...)
}

func (l *Logger) Error(ctx context.Context, s string, attrs ...logger.Attr) {
	l.log(ctx, zerolog.ErrorLevel, s, attrs...)
}

// Fatal logs at fatal level without exiting; callers decide how to stop.
func (l *Logger) Fatal(ctx context.Context, s string, attrs ...logger.Attr) {
	l.log(ctx, zerolog.FatalLevel, s, attrs...)
}

func (l *Logger) log(_ context.Context, level zerolog.Level, s string, attrs ...logger.Attr) {
	if l.logger.GetLevel() > level {
		return
	}
	event := l.logger.WithLevel(level)
	for _, a := range attrs {
		if err, ok := a.Value.(error); ok {
			event = event.AnErr(a.Key, err)
			continue
		}
		event = event.Interface(a.Key, a.Value)
	}
	event.Msg(s)
}

func (l *Logger) WithFields(attrs ...logger.Attr) logger.Logger {
	ctx := l.logger.With()
	for _, a := range attrs {
		ctx = ctx.Interface(a.Key, a.Value)
	}
	child := ctx.Logger()
	return &Logger{logger: &child}
}
