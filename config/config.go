package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/constant"
	"github.com/vidhunt/vidhunt/filesystem"
	"github.com/vidhunt/vidhunt/where"
)

// EnvKeyReplacer maps config keys to environment variable suffixes.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup registers the defaults and reads the config file. Variables from a
// .env file in the working directory never override the real environment.
// A missing config file is not an error.
func Setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	viper.SetFs(filesystem.API())
	viper.SetConfigName(constant.Vidhunt)
	viper.SetConfigType("toml")
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Vidhunt)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	viper.SetTypeByDefaultValue(true)

	for k, field := range Default {
		viper.SetDefault(k, field.Value)
		viper.MustBindEnv(k)
	}

	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}
