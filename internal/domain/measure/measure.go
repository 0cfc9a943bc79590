package measure

import (
	"time"

	"github.com/google/uuid"
)

// Measure is the stable identity of a statistical topic-within-subtopic.
// It owns its versions outright: deleting the sole 1.0 version deletes the
// measure itself.
type Measure struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug      string    `gorm:"column:slug;not null;index" json:"slug"`
	Position  int       `gorm:"column:position;not null;default:999" json:"position"`
	Reference string    `gorm:"column:reference" json:"reference"`

	Subtopics []MeasureSubtopic `gorm:"foreignKey:MeasureID" json:"subtopics,omitempty"`
	Versions  []MeasureVersion  `gorm:"foreignKey:MeasureID" json:"versions,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Measure) TableName() string { return "measure" }

// MeasureSubtopic places a measure under a subtopic. A measure may move
// between subtopics prior to first publish, so membership is a join rather
// than a column.
type MeasureSubtopic struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MeasureID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_measure_subtopic;index" json:"measure_id"`
	SubtopicID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_measure_subtopic;index" json:"subtopic_id"`
	Subtopic   *Subtopic `gorm:"constraint:OnDelete:CASCADE;foreignKey:SubtopicID;references:ID" json:"subtopic,omitempty"`
}

func (MeasureSubtopic) TableName() string { return "measure_subtopic" }
