package logger

import (
	"context"
	"fmt"
	"strings"
)

type Attr struct {
	Key   string
	Value any
}

func NewAttr(key string, value any) Attr {
	return Attr{
		Key:   key,
		Value: value,
	}
}

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

type Logger interface {
	WithFields(...Attr) Logger
	Debug(context.Context, string, ...Attr)
	Info(context.Context, string, ...Attr)
	Warn(context.Context, string, ...Attr)
	Error(context.Context, string, ...Attr)
	Fatal(context.Context, string, ...Attr)
}
