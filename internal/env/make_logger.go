package env

import (
	zap "go.uber.org/zap"
)

// MakeLogger builds the root logger every component hangs off via
// zap.Named. The level comes from OBNET_LOG_LEVEL ("debug", "info",
// "warn", ...), defaulting to info.
func MakeLogger(level string) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logConfig.Encoding = "json"

	if level != "" {
		if err := logConfig.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}

	log, err := logConfig.Build()
	if err != nil {
		return nil, err
	}

	return log.Named("obnet"), nil
}
