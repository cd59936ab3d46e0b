package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/macromeal-backend/internal/models"
)

// Migrate creates the pgvector extension and the recipe schema.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
			return fmt.Errorf("failed to create pgcrypto extension: %w", err)
		}
	}

	if err := db.AutoMigrate(&models.Recipe{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}
