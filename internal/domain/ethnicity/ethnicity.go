package ethnicity

import (
	"time"

	"github.com/google/uuid"
)

// Ethnicity is one canonical value of the shared vocabulary ("Asian",
// "White", ...). Rows are shared reference data: immutable once referenced
// by a classification, deletable only via the explicit orphan cleanup pass.
type Ethnicity struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Value    string    `gorm:"column:value;not null;uniqueIndex" json:"value"`
	Position int       `gorm:"column:position;not null;default:999" json:"position"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Ethnicity) TableName() string { return "ethnicity" }

// Literal standard values with special meaning to the matcher.
const (
	ValueAll     = "All"
	ValueUnknown = "Unknown"
)
