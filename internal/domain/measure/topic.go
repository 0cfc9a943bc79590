package measure

import (
	"time"

	"github.com/google/uuid"
)

type Topic struct {
	ID                    uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug                  string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Title                 string    `gorm:"column:title;not null" json:"title"`
	ShortTitle            string    `gorm:"column:short_title" json:"short_title"`
	Description           string    `gorm:"column:description" json:"description"`
	AdditionalDescription string    `gorm:"column:additional_description" json:"additional_description"`
	Position              int       `gorm:"column:position;not null;default:999" json:"position"`

	Subtopics []Subtopic `gorm:"foreignKey:TopicID" json:"subtopics,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }

type Subtopic struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_subtopic_topic_slug" json:"topic_id"`
	Topic    *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`
	Slug     string    `gorm:"column:slug;not null;uniqueIndex:idx_subtopic_topic_slug" json:"slug"`
	Title    string    `gorm:"column:title;not null" json:"title"`
	Position int       `gorm:"column:position;not null;default:999" json:"position"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Subtopic) TableName() string { return "subtopic" }
