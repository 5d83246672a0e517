package locator

import "github.com/xraph/locator/internal/logger"

// Re-export logger types
type (
	Logger        = logger.Logger
	LogField      = logger.Field
	LoggingConfig = logger.Config
)

// Re-export logger constructors
var (
	NewLogger            = logger.New
	NewDevelopmentLogger = logger.NewDevelopment
	NewNoopLogger        = logger.NewNoop
	LoggerFromZap        = logger.FromZap
)
