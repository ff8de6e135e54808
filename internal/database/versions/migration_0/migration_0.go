package migration_0

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Snapshot of the schema at migration 0. Later migrations must not reuse
// these types.
type HistoryRecord struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	OwnerId string `gorm:"size:64;not null;index:idx_history_owner_kind_uploaded,priority:1"`
	Kind    string `gorm:"size:20;not null;index:idx_history_owner_kind_uploaded,priority:2"`

	FileName   string    `gorm:"not null"`
	UploadedAt time.Time `gorm:"not null;index:idx_history_owner_kind_uploaded,priority:3,sort:desc"`

	Results datatypes.JSON `gorm:"not null"`
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&HistoryRecord{}); err != nil {
		return fmt.Errorf("initial migration failed: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	return db.Migrator().DropTable(&HistoryRecord{})
}
