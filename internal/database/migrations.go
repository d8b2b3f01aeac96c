package database

import (
	"errors"
	"time"

	"github.com/tradenotehq/tradenote/backend/internal/journal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillPlaybookIDs = "2026-03-11_backfill_playbook_external_ids"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillPlaybookIDs, apply: backfillPlaybookExternalIDs},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillPlaybookExternalIDs repairs rows written before the external id
// column became mandatory. Each one receives a freshly generated id.
func backfillPlaybookExternalIDs(db *gorm.DB) error {
	var orphaned []journal.Playbook
	if err := db.Where("playbook_id IS NULL OR playbook_id = ''").Find(&orphaned).Error; err != nil {
		return err
	}
	for _, playbook := range orphaned {
		if err := db.Model(&journal.Playbook{}).
			Where("id = ?", playbook.ID).
			Update("playbook_id", journal.NewPlaybookID()).Error; err != nil {
			return err
		}
	}
	return nil
}
