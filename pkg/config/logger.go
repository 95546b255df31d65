package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type (
	ConsoleLoggerConfig struct {
		Level string `yaml:"level"`
	}

	// FileLoggerConfig describes a rotated log file. Sizes are in
	// megabytes and ages in days.
	FileLoggerConfig struct {
		Level       string `yaml:"level"`
		Destination string `yaml:"destination"`
		MaxSize     int    `yaml:"max_size"`
		MaxBackups  int    `yaml:"max_backups"`
		MaxAge      int    `yaml:"max_age"`
		Compress    bool   `yaml:"compress"`
	}

	LoggingConfig struct {
		Console ConsoleLoggerConfig `yaml:"console"`
		File    FileLoggerConfig    `yaml:"file"`
	}
)

func levelValid(l string) bool {
	switch l {
	case "none", "normal", "debug":
		return true
	}
	return false
}

func (conf *LoggingConfig) validate() error {
	if !levelValid(conf.Console.Level) {
		return fmt.Errorf("logging.console.level must be none, normal or debug, got %q", conf.Console.Level)
	}
	if !levelValid(conf.File.Level) {
		return fmt.Errorf("logging.file.level must be none, normal or debug, got %q", conf.File.Level)
	}
	if conf.File.Level != "none" && conf.File.Destination == "" {
		return fmt.Errorf("logging.file.destination is required when file logging is on")
	}
	return nil
}

// Prepare returns the program logger: info and debug go to stdout, errors
// to stderr, and everything at the file level to the rotated log file.
func (conf *LoggingConfig) Prepare() (*zap.Logger, error) {
	return conf.prepare(zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
}

func (conf *LoggingConfig) prepare(stdout, stderr zapcore.WriteSyncer) (*zap.Logger, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(ec)

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	consoleCoreLP, consoleCoreHP := zapcore.NewNopCore(), zapcore.NewNopCore()
	if conf.Console.Level != "none" {
		lowest := zapcore.InfoLevel
		if conf.Console.Level == "debug" {
			lowest = zapcore.DebugLevel
		}
		consoleCoreLP = zapcore.NewCore(consoleEncoder, stdout,
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lowest <= lvl && lvl < zapcore.ErrorLevel
			}))
		consoleCoreHP = zapcore.NewCore(consoleEncoder, stderr, highPriority)
	}

	fileCore := zapcore.NewNopCore()
	if conf.File.Level != "none" {
		level := zap.NewAtomicLevelAt(zap.InfoLevel)
		if conf.File.Level == "debug" {
			level.SetLevel(zap.DebugLevel)
		}
		// lumberjack handles rotation and serializes writes.
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   conf.File.Destination,
			MaxSize:    conf.File.MaxSize,
			MaxBackups: conf.File.MaxBackups,
			MaxAge:     conf.File.MaxAge,
			Compress:   conf.File.Compress,
		})
		fileCore = zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), w, level)
	}

	log := zap.New(zapcore.NewTee(consoleCoreHP, consoleCoreLP, fileCore),
		zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	return log.Named("vpui"), nil
}
