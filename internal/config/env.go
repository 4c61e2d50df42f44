package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; variables already present in the process environment win.
var envFiles = []string{".env", ".env.local"}

func loadEnvFile() error {
	loaded := 0
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		loaded++
	}
	if loaded == 0 {
		return errors.New("no .env file found")
	}
	return nil
}
