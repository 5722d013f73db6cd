package logger

import (
	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

func Init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// InitNop installs a discarding logger. Tests call this so packages that log
// unconditionally do not need a configured logger.
func InitNop() {
	Log = zap.NewNop().Sugar()
}
