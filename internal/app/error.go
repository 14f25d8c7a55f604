package app

import (
	"github.com/perlasbingo/settlement/internal/http/middleware"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
)

func (a *application) InitErrorHandler(log *logger.Logger) *middleware.ErrorHandler {
	return middleware.NewErrorHandler(log.Named("http"))
}
