package logger

import (
	"license-key-service/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger and installs it as the zap global.
func New(cfg *config.Config) (*zap.Logger, error) {
	log, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	if cfg.IsProduction() {
		zc := zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.EncoderConfig.LevelKey = "severity"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		zc.OutputPaths = []string{"stdout"}
		zc.ErrorOutputPaths = []string{"stderr"}

		log, err = zc.Build()
		if err != nil {
			return nil, err
		}
	}

	log = log.With(
		zap.String("env", cfg.AppEnv),
		zap.String("service_name", cfg.AppName),
	)
	zap.ReplaceGlobals(log)

	return log, nil
}

// MaskKey hides the middle of a license key so it can be logged.
func MaskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:4] + "-****-****-" + key[len(key)-4:]
}
