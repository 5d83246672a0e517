package locator

import (
	"github.com/xraph/locator/internal/config"
	"github.com/xraph/locator/internal/metrics"
)

// Config configures a locator.
type Config = config.Config

// Metrics instruments a locator with prometheus.
type Metrics = metrics.Metrics

var (
	DefaultConfig = config.Default
	ParseConfig   = config.Parse
	LoadConfig    = config.Load
	NewMetrics    = metrics.New
)
