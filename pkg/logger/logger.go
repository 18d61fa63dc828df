package logger

import (
	"fmt"

	"go.uber.org/zap"
)

var (
	serviceName = "default"
	log         *zap.Logger
)

// Init builds the process-wide logger. Call once from main before any module
// starts.
func Init(service string) error {
	serviceName = service

	l, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	log = l
	return nil
}

func base() *zap.Logger {
	if log == nil {
		// Not initialized (tests, tools): stay silent instead of panicking.
		log = zap.NewNop()
	}
	return log.With(zap.String("service", serviceName))
}

func Info(format string, args ...interface{}) {
	base().Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	base().Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	base().Error(fmt.Sprintf(format, args...))
}

// Critical marks invariant violations that need an operator: a mis-tracked
// live position is not safe to auto-heal.
func Critical(format string, args ...interface{}) {
	base().With(zap.Bool("critical", true)).Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	base().Fatal(fmt.Sprintf(format, args...))
}
