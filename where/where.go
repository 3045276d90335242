// Package where resolves the directories vidhunt reads from and writes to.
// Every function creates the directory before returning it.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/vidhunt/vidhunt/constant"
	"github.com/vidhunt/vidhunt/filesystem"
)

// EnvConfigPath overrides the config directory.
const EnvConfigPath = "VIDHUNT_CONFIG_PATH"

func mkdir(elem ...string) string {
	path := filepath.Join(elem...)
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config is the directory holding vidhunt.toml, unless EnvConfigPath is set.
func Config() string {
	if path, ok := os.LookupEnv(EnvConfigPath); ok && path != "" {
		return mkdir(path)
	}
	return mkdir(lo.Must(os.UserConfigDir()), constant.Vidhunt)
}

// Cache holds cached upstream responses.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return mkdir(Temp(), "cache")
	}
	return mkdir(base, constant.Vidhunt)
}

// Logs holds one log file per day.
func Logs() string {
	return mkdir(Config(), "logs")
}

// Sources holds custom Lua provider scripts.
func Sources() string {
	return mkdir(Config(), "sources")
}

func Temp() string {
	return mkdir(os.TempDir(), constant.Vidhunt)
}
