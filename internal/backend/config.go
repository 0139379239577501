package backend

import (
	"fmt"

	"buchhaltung/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DBDriver)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DBDriver)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,

		ChartFile:         appConfig.ChartFile,
		EntryNumberPrefix: appConfig.EntryNumberPrefix,

		DepreciationWorkers:    appConfig.DepreciationWorkers,
		DepreciationPostLedger: appConfig.DepreciationPostLedger,

		ReportCacheTTL:  appConfig.ReportCacheTTL,
		ReportCacheSize: appConfig.ReportCacheSize,
	}, nil
}
