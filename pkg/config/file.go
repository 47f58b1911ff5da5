package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"duplex-server/pkg/errors"
)

// loadFile overlays the YAML document at path onto config. Keys missing from
// the file keep their current values.
func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read configuration file").WithField("path", path)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.Wrap(err, "failed to parse configuration file").
			WithField("path", path).
			WithCode(errors.CodeInvalidInput)
	}
	return nil
}
