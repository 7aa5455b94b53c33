// Package logging builds the process logger from the configuration.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toutaio/toutago-autosingleton/config"
)

// Config returns the zap configuration for the given log settings.
func Config(l config.Log) zap.Config {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if l.Encoding == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	encoding := l.Encoding
	if encoding == "" {
		encoding = "console"
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(l.Level)),
		Encoding:         encoding,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig,
	}
}

// New builds a logger named "autosingleton".
func New(l config.Log) (*zap.Logger, error) {
	logger, err := Config(l).Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("autosingleton"), nil
}

// ParseLevel maps a configured level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
