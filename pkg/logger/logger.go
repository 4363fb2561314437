package logger

import (
	"os"

	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger

func init() {
	var (
		l   *zap.Logger
		err error
	)

	if os.Getenv("ENVIRONMENT") == "development" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction(zap.WithCaller(true))
	}
	if err != nil {
		panic(err)
	}

	sugar = l.Sugar()
}

func Info(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

func Warn(format string, v ...interface{}) {
	sugar.Warnf(format, v...)
}

func Debug(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

// Sync flushes buffered log entries. Call it on shutdown.
func Sync() {
	_ = sugar.Sync()
}
