package repos

import (
	"github.com/statspub/measures-backend/internal/data/repos/ethnicity"
	"github.com/statspub/measures-backend/internal/data/repos/measure"
	"github.com/statspub/measures-backend/internal/data/repos/user"
	"github.com/statspub/measures-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type EthnicityRepo = ethnicity.EthnicityRepo
type ClassificationRepo = ethnicity.ClassificationRepo

type TopicRepo = measure.TopicRepo
type SubtopicRepo = measure.SubtopicRepo
type MeasureRepo = measure.MeasureRepo
type MeasureVersionRepo = measure.MeasureVersionRepo
type DimensionRepo = measure.DimensionRepo
type DimensionChartRepo = measure.DimensionChartRepo
type DimensionTableRepo = measure.DimensionTableRepo
type DimensionClassificationRepo = measure.DimensionClassificationRepo
type UploadRepo = measure.UploadRepo
type DataSourceRepo = measure.DataSourceRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewEthnicityRepo(db *gorm.DB, baseLog *logger.Logger) EthnicityRepo {
	return ethnicity.NewEthnicityRepo(db, baseLog)
}
func NewClassificationRepo(db *gorm.DB, baseLog *logger.Logger) ClassificationRepo {
	return ethnicity.NewClassificationRepo(db, baseLog)
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return measure.NewTopicRepo(db, baseLog)
}
func NewSubtopicRepo(db *gorm.DB, baseLog *logger.Logger) SubtopicRepo {
	return measure.NewSubtopicRepo(db, baseLog)
}
func NewMeasureRepo(db *gorm.DB, baseLog *logger.Logger) MeasureRepo {
	return measure.NewMeasureRepo(db, baseLog)
}
func NewMeasureVersionRepo(db *gorm.DB, baseLog *logger.Logger) MeasureVersionRepo {
	return measure.NewMeasureVersionRepo(db, baseLog)
}
func NewDimensionRepo(db *gorm.DB, baseLog *logger.Logger) DimensionRepo {
	return measure.NewDimensionRepo(db, baseLog)
}
func NewDimensionChartRepo(db *gorm.DB, baseLog *logger.Logger) DimensionChartRepo {
	return measure.NewDimensionChartRepo(db, baseLog)
}
func NewDimensionTableRepo(db *gorm.DB, baseLog *logger.Logger) DimensionTableRepo {
	return measure.NewDimensionTableRepo(db, baseLog)
}
func NewDimensionClassificationRepo(db *gorm.DB, baseLog *logger.Logger) DimensionClassificationRepo {
	return measure.NewDimensionClassificationRepo(db, baseLog)
}
func NewUploadRepo(db *gorm.DB, baseLog *logger.Logger) UploadRepo {
	return measure.NewUploadRepo(db, baseLog)
}
func NewDataSourceRepo(db *gorm.DB, baseLog *logger.Logger) DataSourceRepo {
	return measure.NewDataSourceRepo(db, baseLog)
}
