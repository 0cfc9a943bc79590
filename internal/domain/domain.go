package domain

import (
	"github.com/statspub/measures-backend/internal/domain/ethnicity"
	"github.com/statspub/measures-backend/internal/domain/measure"
	"github.com/statspub/measures-backend/internal/domain/user"
)

type Ethnicity = ethnicity.Ethnicity
type Classification = ethnicity.Classification
type ClassificationValue = ethnicity.ClassificationValue
type ClassificationParentValue = ethnicity.ClassificationParentValue

type Topic = measure.Topic
type Subtopic = measure.Subtopic
type Measure = measure.Measure
type MeasureSubtopic = measure.MeasureSubtopic
type MeasureVersion = measure.MeasureVersion
type Upload = measure.Upload
type DataSource = measure.DataSource
type MeasureVersionDataSource = measure.MeasureVersionDataSource
type Dimension = measure.Dimension
type DimensionChart = measure.DimensionChart
type DimensionTable = measure.DimensionTable
type DimensionClassification = measure.DimensionClassification
type ClassificationLink = measure.ClassificationLink

type User = user.User
