package ethnicity

import (
	"time"

	"github.com/google/uuid"
)

// Classification is a named, coded grouping of ethnicities ("2A", "5A",
// "ONS 2011 5+1"). It owns an ordered standard value set and, optionally,
// a coarser parent value set covering the same universe.
type Classification struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code      string    `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Family    string    `gorm:"column:family;not null;uniqueIndex:idx_classification_family_title" json:"family"`
	Subfamily string    `gorm:"column:subfamily" json:"subfamily"`
	Title     string    `gorm:"column:title;not null;uniqueIndex:idx_classification_family_title" json:"title"`
	Position  int       `gorm:"column:position;not null;default:999" json:"position"`

	Values       []ClassificationValue       `gorm:"foreignKey:ClassificationID" json:"values,omitempty"`
	ParentValues []ClassificationParentValue `gorm:"foreignKey:ClassificationID" json:"parent_values,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Classification) TableName() string { return "classification" }

// ClassificationValue is standard (child-level) membership of an ethnicity
// in a classification. ParentEthnicityID maps the value to its rollup when
// the classification has a parent structure.
type ClassificationValue struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ClassificationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_classification_value;index" json:"classification_id"`
	EthnicityID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_classification_value" json:"ethnicity_id"`
	Ethnicity        *Ethnicity `gorm:"foreignKey:EthnicityID;references:ID" json:"ethnicity,omitempty"`
	Position         int        `gorm:"column:position;not null;default:999" json:"position"`
	Required         bool       `gorm:"column:required;not null;default:true" json:"required"`

	ParentEthnicityID *uuid.UUID `gorm:"type:uuid" json:"parent_ethnicity_id,omitempty"`
	ParentEthnicity   *Ethnicity `gorm:"foreignKey:ParentEthnicityID;references:ID" json:"parent_ethnicity,omitempty"`
}

func (ClassificationValue) TableName() string { return "classification_value" }

// ClassificationParentValue is coarse (rollup) membership. Required parents
// must all appear in displayed data before a link reports includes_parents.
type ClassificationParentValue struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ClassificationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_classification_parent_value;index" json:"classification_id"`
	EthnicityID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_classification_parent_value" json:"ethnicity_id"`
	Ethnicity        *Ethnicity `gorm:"foreignKey:EthnicityID;references:ID" json:"ethnicity,omitempty"`
	Position         int        `gorm:"column:position;not null;default:999" json:"position"`
	Required         bool       `gorm:"column:required;not null;default:true" json:"required"`
}

func (ClassificationParentValue) TableName() string { return "classification_parent_value" }

// Complexity is the matcher's tie-break signal: the size of the standard
// value set.
func (c *Classification) Complexity() int { return len(c.Values) }

// HasParentChildRelationship reports whether the parent structure is
// non-trivial: at least one standard value whose display form differs from
// its parent's.
func (c *Classification) HasParentChildRelationship() bool {
	if len(c.ParentValues) == 0 {
		return false
	}
	for _, v := range c.Values {
		if v.Ethnicity == nil || v.ParentEthnicity == nil {
			continue
		}
		if v.Ethnicity.Value != v.ParentEthnicity.Value {
			return true
		}
	}
	return false
}

// StandardValueStrings returns the display values of the standard set in
// position order (the set is expected to be loaded ordered).
func (c *Classification) StandardValueStrings() []string {
	out := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		if v.Ethnicity != nil {
			out = append(out, v.Ethnicity.Value)
		}
	}
	return out
}

func (c *Classification) ParentValueStrings() []string {
	out := make([]string, 0, len(c.ParentValues))
	for _, v := range c.ParentValues {
		if v.Ethnicity != nil {
			out = append(out, v.Ethnicity.Value)
		}
	}
	return out
}

// RequiredValueStrings returns the standard values a data set must contain
// for this classification to be considered a match.
func (c *Classification) RequiredValueStrings() []string {
	out := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		if v.Required && v.Ethnicity != nil {
			out = append(out, v.Ethnicity.Value)
		}
	}
	return out
}

// RequiredParentValueStrings returns the parent values that must all be
// displayed before includes_parents holds.
func (c *Classification) RequiredParentValueStrings() []string {
	out := make([]string, 0, len(c.ParentValues))
	for _, v := range c.ParentValues {
		if v.Required && v.Ethnicity != nil {
			out = append(out, v.Ethnicity.Value)
		}
	}
	return out
}

// KnownValueStrings is every display value the classification recognises,
// standard and parent level alike.
func (c *Classification) KnownValueStrings() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range c.StandardValueStrings() {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range c.ParentValueStrings() {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
