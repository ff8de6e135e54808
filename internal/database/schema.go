package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	KindPrescription string = "prescription"
	KindMedicalTest  string = "medical-test"
)

// HistoryRecord is one saved analysis result. OwnerId and Kind are set at
// creation and never updated; Results holds {"medicines":[...]} or
// {"tests":[...]} depending on Kind. The composite index serves the
// owner-scoped, kind-filtered, newest-first listing queries.
type HistoryRecord struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	OwnerId string `gorm:"size:64;not null;index:idx_history_owner_kind_uploaded,priority:1"`
	Kind    string `gorm:"size:20;not null;index:idx_history_owner_kind_uploaded,priority:2"`

	FileName   string    `gorm:"not null"`
	UploadedAt time.Time `gorm:"not null;index:idx_history_owner_kind_uploaded,priority:3,sort:desc"`

	Results datatypes.JSON `gorm:"not null"`
}
