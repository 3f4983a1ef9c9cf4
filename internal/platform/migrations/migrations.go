package migrations

import (
	"gorm.io/gorm"

	apppostgres "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/persistence/postgres"
	userpostgres "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/persistence/postgres"
)

// Run applies the schema for the bounded contexts. Users come first so the
// application owner column can reference them.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	models := append(userpostgres.Models(), apppostgres.Models()...)
	return db.AutoMigrate(models...)
}
