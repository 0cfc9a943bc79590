package db

import (
	types "github.com/statspub/measures-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Users
		&types.User{},

		// Ethnicity reference data
		&types.Ethnicity{},
		&types.Classification{},
		&types.ClassificationValue{},
		&types.ClassificationParentValue{},

		// Site structure
		&types.Topic{},
		&types.Subtopic{},
		&types.Measure{},
		&types.MeasureSubtopic{},

		// Versions and their owned children
		&types.MeasureVersion{},
		&types.Upload{},
		&types.DataSource{},
		&types.MeasureVersionDataSource{},
		&types.Dimension{},
		&types.DimensionChart{},
		&types.DimensionTable{},
		&types.DimensionClassification{},
	)
}
