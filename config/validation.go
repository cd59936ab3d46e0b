package config

import (
	"fmt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that every field the server cannot run without is
// present. Capability API keys are validated by the clients that need them,
// so a deployment without generation configured can still serve ranking.
func ValidateConfig(cfg *Config) error {
	required := map[string]string{
		"ServerPort": cfg.ServerPort,
		"ServerHost": cfg.ServerHost,
		"DBHost":     cfg.DBHost,
		"DBPort":     cfg.DBPort,
		"DBUser":     cfg.DBUser,
		"DBName":     cfg.DBName,
		"RedisHost":  cfg.RedisHost,
		"RedisPort":  cfg.RedisPort,
	}

	for field, value := range required {
		if value == "" {
			return ValidationError{Field: field, Message: "must not be empty"}
		}
	}

	if IsProduction() && cfg.DBPassword == "" {
		return ValidationError{Field: "DBPassword", Message: "required in production"}
	}

	return nil
}
