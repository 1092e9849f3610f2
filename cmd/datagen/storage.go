package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/frqc/data-generation/internal/config"
	"github.com/frqc/data-generation/internal/storage"
)

func createStorageBackend() (storage.Backend, error) {
	storageCfg := config.GetStorageConfig()

	sqliteDumpPath := filepath.Join(viper.GetString("logsDir"),
		fmt.Sprintf("%s_%s.db", AppName, SessionStartTime.Format("20060102_150405")))

	backend, err := storage.NewBackend(storageCfg, storage.Dependencies{
		LogManager:     SlogManager,
		RunContext:     RunContext,
		Diag:           Diag,
		SqliteDumpPath: sqliteDumpPath,
	})
	if err != nil {
		return nil, err
	}

	Logger.Info("Storage backend initialized", "type", storageCfg.Type)
	return backend, nil
}
