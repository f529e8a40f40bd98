package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ReadConfigFile merges a YAML config file into v. An explicitly named file must exist; otherwise the file
// called defaultName is looked up in the user's home directory and skipped if it is not there.
func ReadConfigFile(v *viper.Viper, cfgFile string, defaultName string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return errors.Wrap(err, "error getting user home directory")
		}
		v.SetConfigFile(filepath.Join(home, defaultName))
		v.SetConfigType("yaml")
	}

	err := v.MergeInConfig()
	if err == nil {
		log.Debugf("read config from %s", v.ConfigFileUsed())
		return nil
	}
	switch err.(type) {
	case viper.ConfigFileNotFoundError:
		return nil
	case *os.PathError:
		if cfgFile == "" {
			// No default config is fine
			return nil
		}
	}
	return errors.Wrapf(err, "error reading config file %s", v.ConfigFileUsed())
}

// Unmarshal decodes the settings of v into config, applying hooks to every field, then validates it.
func Unmarshal(v *viper.Viper, config interface{}, hooks ...mapstructure.DecodeHookFunc) error {
	if err := v.Unmarshal(config, viper.DecodeHook(DecodeHook(hooks...))); err != nil {
		return errors.WithStack(err)
	}
	return Validate(config)
}
