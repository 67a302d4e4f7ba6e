package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SaveTOML writes data to filePath as TOML, creating parent directories as
// needed. The identity file goes through here.
func SaveTOML(filePath string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filePath, err)
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(data)
}

// LoadTOML decodes the TOML file at filePath into data.
func LoadTOML(filePath string, data interface{}) error {
	if _, err := toml.DecodeFile(filePath, data); err != nil {
		return fmt.Errorf("decoding %s: %w", filePath, err)
	}
	return nil
}
