package measure

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/statspub/measures-backend/internal/domain/ethnicity"
)

// Dimension is one breakdown within a measure version, optionally carrying
// a chart and/or a table, each independently tagged with a classification
// link. Copies get fresh guids; positions are assigned as the dimension
// count at creation time.
type Dimension struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MeasureVersionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"measure_version_id"`
	MeasureVersion   *MeasureVersion `gorm:"constraint:OnDelete:CASCADE;foreignKey:MeasureVersionID;references:ID" json:"measure_version,omitempty"`
	GUID             string          `gorm:"column:guid;not null;uniqueIndex" json:"guid"`
	Title            string          `gorm:"column:title;not null" json:"title"`
	TimePeriod       string          `gorm:"column:time_period" json:"time_period"`
	Summary          string          `gorm:"column:summary" json:"summary"`
	Position         int             `gorm:"column:position;not null;default:0" json:"position"`

	Chart                   *DimensionChart          `gorm:"foreignKey:DimensionID" json:"chart,omitempty"`
	Table                   *DimensionTable          `gorm:"foreignKey:DimensionID" json:"table,omitempty"`
	DimensionClassification *DimensionClassification `gorm:"foreignKey:DimensionID" json:"dimension_classification,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Dimension) TableName() string { return "dimension" }

// ClassificationLink is the (classification, flags) tuple shared by chart,
// table and dimension-level links.
type ClassificationLink struct {
	ClassificationID uuid.UUID `json:"classification_id"`
	IncludesParents  bool      `json:"includes_parents"`
	IncludesAll      bool      `json:"includes_all"`
	IncludesUnknown  bool      `json:"includes_unknown"`
}

// DimensionChart holds the dimension's chart payload plus its optional
// classification link. Replacing a chart is a full row swap, never a
// partial update, so at most one link per role exists by construction.
type DimensionChart struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DimensionID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"dimension_id"`
	ChartObject datatypes.JSON `gorm:"column:chart_object;type:jsonb" json:"chart_object"`
	Settings    datatypes.JSON `gorm:"column:settings;type:jsonb" json:"settings"`

	ClassificationID *uuid.UUID                `gorm:"type:uuid;index" json:"classification_id,omitempty"`
	Classification   *ethnicity.Classification `gorm:"foreignKey:ClassificationID;references:ID" json:"classification,omitempty"`
	IncludesParents  bool                      `gorm:"column:includes_parents;not null;default:false" json:"includes_parents"`
	IncludesAll      bool                      `gorm:"column:includes_all;not null;default:false" json:"includes_all"`
	IncludesUnknown  bool                      `gorm:"column:includes_unknown;not null;default:false" json:"includes_unknown"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (DimensionChart) TableName() string { return "dimension_chart" }

func (dc *DimensionChart) Link() *ClassificationLink {
	if dc == nil || dc.ClassificationID == nil {
		return nil
	}
	return &ClassificationLink{
		ClassificationID: *dc.ClassificationID,
		IncludesParents:  dc.IncludesParents,
		IncludesAll:      dc.IncludesAll,
		IncludesUnknown:  dc.IncludesUnknown,
	}
}

type DimensionTable struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DimensionID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"dimension_id"`
	TableObject datatypes.JSON `gorm:"column:table_object;type:jsonb" json:"table_object"`
	Settings    datatypes.JSON `gorm:"column:settings;type:jsonb" json:"settings"`

	ClassificationID *uuid.UUID                `gorm:"type:uuid;index" json:"classification_id,omitempty"`
	Classification   *ethnicity.Classification `gorm:"foreignKey:ClassificationID;references:ID" json:"classification,omitempty"`
	IncludesParents  bool                      `gorm:"column:includes_parents;not null;default:false" json:"includes_parents"`
	IncludesAll      bool                      `gorm:"column:includes_all;not null;default:false" json:"includes_all"`
	IncludesUnknown  bool                      `gorm:"column:includes_unknown;not null;default:false" json:"includes_unknown"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (DimensionTable) TableName() string { return "dimension_table" }

func (dt *DimensionTable) Link() *ClassificationLink {
	if dt == nil || dt.ClassificationID == nil {
		return nil
	}
	return &ClassificationLink{
		ClassificationID: *dt.ClassificationID,
		IncludesParents:  dt.IncludesParents,
		IncludesAll:      dt.IncludesAll,
		IncludesUnknown:  dt.IncludesUnknown,
	}
}

// DimensionClassification is the dimension-level link: a verbatim copy of
// the chart's or table's link, or a manually selected one.
type DimensionClassification struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DimensionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"dimension_id"`

	ClassificationID uuid.UUID                 `gorm:"type:uuid;not null;index" json:"classification_id"`
	Classification   *ethnicity.Classification `gorm:"foreignKey:ClassificationID;references:ID" json:"classification,omitempty"`
	IncludesParents  bool                      `gorm:"column:includes_parents;not null;default:false" json:"includes_parents"`
	IncludesAll      bool                      `gorm:"column:includes_all;not null;default:false" json:"includes_all"`
	IncludesUnknown  bool                      `gorm:"column:includes_unknown;not null;default:false" json:"includes_unknown"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (DimensionClassification) TableName() string { return "dimension_classification" }

func (dcl *DimensionClassification) Link() *ClassificationLink {
	if dcl == nil {
		return nil
	}
	return &ClassificationLink{
		ClassificationID: dcl.ClassificationID,
		IncludesParents:  dcl.IncludesParents,
		IncludesAll:      dcl.IncludesAll,
		IncludesUnknown:  dcl.IncludesUnknown,
	}
}

// Matches reports link equality: same classification and all three flags.
func (l *ClassificationLink) Matches(other *ClassificationLink) bool {
	if l == nil || other == nil {
		return false
	}
	return l.ClassificationID == other.ClassificationID &&
		l.IncludesParents == other.IncludesParents &&
		l.IncludesAll == other.IncludesAll &&
		l.IncludesUnknown == other.IncludesUnknown
}

// Classification source labels reported for a dimension.
const (
	SourceChart            = "Chart"
	SourceTable            = "Table"
	SourceManuallySelected = "Manually selected"
)

// ClassificationSource reports where the dimension-level link came from:
// "Chart", "Table", "Manually selected", or "" when no dimension
// classification exists. The chart is checked first, so an exact three-way
// match resolves to "Table".
func (d *Dimension) ClassificationSource() string {
	current := d.DimensionClassification.Link()
	if current == nil {
		return ""
	}
	matchesChart := current.Matches(d.Chart.Link())
	matchesTable := current.Matches(d.Table.Link())
	if matchesChart && !matchesTable {
		return SourceChart
	}
	if matchesTable {
		return SourceTable
	}
	return SourceManuallySelected
}
