//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"go.uber.org/zap/zapcore"

	"github.com/zeusync/arena/internal/core/observability/log"
)

func ProvideLogger() *log.Logger {
	wire.Build(log.Provide)
	return log.New(zapcore.InfoLevel)
}
