package measure

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeasureVersion is one content snapshot of a measure at a "major.minor"
// version. Content is never mutated in place once latest moves off it; only
// the workflow status and the latest flag change afterwards.
type MeasureVersion struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MeasureID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_measure_version" json:"measure_id"`
	Measure   *Measure  `gorm:"constraint:OnDelete:CASCADE;foreignKey:MeasureID;references:ID" json:"measure,omitempty"`
	Version   string    `gorm:"column:version;not null;uniqueIndex:idx_measure_version" json:"version"`

	Status Status `gorm:"column:status;not null;default:'draft'" json:"status"`

	// Exactly one version per measure carries latest=true; the copy engine
	// enforces the invariant at its single commit boundary.
	Latest        bool       `gorm:"column:latest;not null;default:false" json:"latest"`
	Published     bool       `gorm:"column:published;not null;default:false" json:"published"`
	PublishedAt   *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	UnpublishedAt *time.Time `gorm:"column:unpublished_at" json:"unpublished_at,omitempty"`

	Title                       string         `gorm:"column:title;not null" json:"title"`
	Summary                     string         `gorm:"column:summary" json:"summary"`
	MeasureSummary              string         `gorm:"column:measure_summary" json:"measure_summary"`
	NeedToKnow                  string         `gorm:"column:need_to_know" json:"need_to_know"`
	EthnicityDefinitions        string         `gorm:"column:ethnicity_definitions" json:"ethnicity_definitions"`
	Methodology                 string         `gorm:"column:methodology" json:"methodology"`
	SuppressionAndDisclosure    string         `gorm:"column:suppression_and_disclosure" json:"suppression_and_disclosure"`
	EstimationProcess           string         `gorm:"column:estimation_process" json:"estimation_process"`
	RelatedPublications         string         `gorm:"column:related_publications" json:"related_publications"`
	QMIURL                      string         `gorm:"column:qmi_url" json:"qmi_url"`
	FurtherTechnicalInformation string         `gorm:"column:further_technical_information" json:"further_technical_information"`
	TimeCoveredPhrase           string         `gorm:"column:time_covered_phrase" json:"time_covered_phrase"`
	LowestLevelOfGeography      string         `gorm:"column:lowest_level_of_geography" json:"lowest_level_of_geography"`
	AreaCovered                 datatypes.JSON `gorm:"column:area_covered;type:jsonb" json:"area_covered"`

	InternalEditSummary       *string `gorm:"column:internal_edit_summary" json:"internal_edit_summary,omitempty"`
	ExternalEditSummary       *string `gorm:"column:external_edit_summary" json:"external_edit_summary,omitempty"`
	UpdateCorrectsDataMistake bool    `gorm:"column:update_corrects_data_mistake;not null;default:false" json:"update_corrects_data_mistake"`

	Dimensions  []Dimension                `gorm:"foreignKey:MeasureVersionID" json:"dimensions,omitempty"`
	Uploads     []Upload                   `gorm:"foreignKey:MeasureVersionID" json:"uploads,omitempty"`
	DataSources []MeasureVersionDataSource `gorm:"foreignKey:MeasureVersionID" json:"data_sources,omitempty"`

	// DBVersion is the stale-write counter checked by ordinary content
	// edits; the copy engine resets it to 1 on every new version.
	DBVersion int `gorm:"column:db_version;not null;default:1" json:"db_version"`

	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
	CreatedBy     string    `gorm:"column:created_by" json:"created_by"`
	LastUpdatedAt time.Time `gorm:"not null;default:now()" json:"last_updated_at"`
	LastUpdatedBy string    `gorm:"column:last_updated_by" json:"last_updated_by"`
}

func (MeasureVersion) TableName() string { return "measure_version" }

// Upload is a source-data file attached to one measure version. Copies get
// a fresh guid derived from the filename.
type Upload struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MeasureVersionID uuid.UUID `gorm:"type:uuid;not null;index" json:"measure_version_id"`
	GUID             string    `gorm:"column:guid;not null;uniqueIndex" json:"guid"`
	Title            string    `gorm:"column:title" json:"title"`
	FileName         string    `gorm:"column:file_name;not null" json:"file_name"`
	Description      string    `gorm:"column:description" json:"description"`
	Size             int64     `gorm:"column:size;not null;default:0" json:"size"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Upload) TableName() string { return "upload" }

// StorageKey is the object key the upload's file lives under.
func (u *Upload) StorageKey() string {
	return "measure-version/" + u.MeasureVersionID.String() + "/" + u.FileName
}

// DataSource rows are shared reference data; versions own only their
// associations to them.
type DataSource struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title          string    `gorm:"column:title;not null" json:"title"`
	SourceURL      string    `gorm:"column:source_url" json:"source_url"`
	Publisher      string    `gorm:"column:publisher" json:"publisher"`
	PublicationDate string   `gorm:"column:publication_date" json:"publication_date"`
	Frequency      string    `gorm:"column:frequency" json:"frequency"`
	Purpose        string    `gorm:"column:purpose" json:"purpose"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (DataSource) TableName() string { return "data_source" }

type MeasureVersionDataSource struct {
	ID               uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MeasureVersionID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_version_data_source;index" json:"measure_version_id"`
	DataSourceID     uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_version_data_source" json:"data_source_id"`
	DataSource       *DataSource `gorm:"foreignKey:DataSourceID;references:ID" json:"data_source,omitempty"`
}

func (MeasureVersionDataSource) TableName() string { return "measure_version_data_source" }
