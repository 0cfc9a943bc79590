package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/statspub/measures-backend/internal/services"
)

type MeasureHandler struct {
	measureVersionService services.MeasureVersionService
	versioningService     services.VersioningService
}

func NewMeasureHandler(measureVersionService services.MeasureVersionService, versioningService services.VersioningService) *MeasureHandler {
	return &MeasureHandler{
		measureVersionService: measureVersionService,
		versioningService:     versioningService,
	}
}

func (mh *MeasureHandler) GetMeasure(c *gin.Context) {
	m, err := mh.measureVersionService.GetMeasure(c.Request.Context(), nil,
		c.Param("topic"), c.Param("subtopic"), c.Param("measure"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	versions, err := mh.measureVersionService.ListVersions(c.Request.Context(), nil, m.ID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"measure": m, "versions": versions})
}

func (mh *MeasureHandler) GetMeasureVersion(c *gin.Context) {
	mv, err := mh.measureVersionService.GetMeasureVersion(c.Request.Context(), nil,
		c.Param("topic"), c.Param("subtopic"), c.Param("measure"), c.Param("version"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"measure_version":   mv,
		"available_actions": mv.AvailableActions(),
	})
}

type createMeasureRequest struct {
	SubtopicID uuid.UUID `json:"subtopic_id" binding:"required"`
	Slug       string    `json:"slug" binding:"required"`
	Title      string    `json:"title" binding:"required"`
	CreatedBy  string    `json:"created_by" binding:"required"`
}

func (mh *MeasureHandler) CreateMeasure(c *gin.Context) {
	var req createMeasureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	mv, err := mh.versioningService.CreateMeasure(c.Request.Context(), req.SubtopicID, req.Slug, req.Title, req.CreatedBy)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"measure_version": mv})
}

type updateMeasureVersionRequest struct {
	DBVersion int    `json:"db_version" binding:"required"`
	UpdatedBy string `json:"updated_by" binding:"required"`

	Title                       *string         `json:"title"`
	Summary                     *string         `json:"summary"`
	MeasureSummary              *string         `json:"measure_summary"`
	NeedToKnow                  *string         `json:"need_to_know"`
	EthnicityDefinitions        *string         `json:"ethnicity_definitions"`
	Methodology                 *string         `json:"methodology"`
	SuppressionAndDisclosure    *string         `json:"suppression_and_disclosure"`
	EstimationProcess           *string         `json:"estimation_process"`
	RelatedPublications         *string         `json:"related_publications"`
	QMIURL                      *string         `json:"qmi_url"`
	FurtherTechnicalInformation *string         `json:"further_technical_information"`
	TimeCoveredPhrase           *string         `json:"time_covered_phrase"`
	LowestLevelOfGeography      *string         `json:"lowest_level_of_geography"`
	AreaCovered                 *datatypes.JSON `json:"area_covered"`
	InternalEditSummary         *string         `json:"internal_edit_summary"`
	ExternalEditSummary         *string         `json:"external_edit_summary"`
	UpdateCorrectsDataMistake   *bool           `json:"update_corrects_data_mistake"`
}

func (mh *MeasureHandler) UpdateMeasureVersion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateMeasureVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}

	mv, err := mh.measureVersionService.UpdateMeasureVersion(c.Request.Context(), nil, id, services.MeasureVersionUpdate{
		DBVersion:                   req.DBVersion,
		Title:                       req.Title,
		Summary:                     req.Summary,
		MeasureSummary:              req.MeasureSummary,
		NeedToKnow:                  req.NeedToKnow,
		EthnicityDefinitions:        req.EthnicityDefinitions,
		Methodology:                 req.Methodology,
		SuppressionAndDisclosure:    req.SuppressionAndDisclosure,
		EstimationProcess:           req.EstimationProcess,
		RelatedPublications:         req.RelatedPublications,
		QMIURL:                      req.QMIURL,
		FurtherTechnicalInformation: req.FurtherTechnicalInformation,
		TimeCoveredPhrase:           req.TimeCoveredPhrase,
		LowestLevelOfGeography:      req.LowestLevelOfGeography,
		AreaCovered:                 req.AreaCovered,
		InternalEditSummary:         req.InternalEditSummary,
		ExternalEditSummary:         req.ExternalEditSummary,
		UpdateCorrectsDataMistake:   req.UpdateCorrectsDataMistake,
	}, req.UpdatedBy)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"measure_version": mv})
}

type createVersionRequest struct {
	UpdateType services.UpdateType `json:"update_type" binding:"required"`
	CreatedBy  string              `json:"created_by" binding:"required"`
}

func (mh *MeasureHandler) CreateMeasureVersion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req createVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	mv, err := mh.versioningService.CreateMeasureVersion(c.Request.Context(), id, req.UpdateType, req.CreatedBy)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"measure_version": mv})
}

func (mh *MeasureHandler) DeleteMeasureVersion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := mh.versioningService.DeleteMeasureVersion(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type workflowRequest struct {
	Actor string `json:"actor" binding:"required"`
}

func (mh *MeasureHandler) workflow(c *gin.Context, op func(ctx *gin.Context, id uuid.UUID, actor string)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req workflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	op(c, id, req.Actor)
}

func (mh *MeasureHandler) Approve(c *gin.Context) {
	mh.workflow(c, func(c *gin.Context, id uuid.UUID, actor string) {
		mv, err := mh.measureVersionService.SendToNextState(c.Request.Context(), id, actor)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"measure_version": mv, "available_actions": mv.AvailableActions()})
	})
}

func (mh *MeasureHandler) Reject(c *gin.Context) {
	mh.workflow(c, func(c *gin.Context, id uuid.UUID, actor string) {
		mv, err := mh.measureVersionService.RejectMeasureVersion(c.Request.Context(), id, actor)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"measure_version": mv, "available_actions": mv.AvailableActions()})
	})
}

func (mh *MeasureHandler) ReturnToDraft(c *gin.Context) {
	mh.workflow(c, func(c *gin.Context, id uuid.UUID, actor string) {
		mv, err := mh.measureVersionService.SendMeasureVersionToDraft(c.Request.Context(), id, actor)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"measure_version": mv, "available_actions": mv.AvailableActions()})
	})
}

func (mh *MeasureHandler) Unpublish(c *gin.Context) {
	mh.workflow(c, func(c *gin.Context, id uuid.UUID, actor string) {
		mv, err := mh.measureVersionService.UnpublishMeasureVersion(c.Request.Context(), id, actor)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"measure_version": mv, "available_actions": mv.AvailableActions()})
	})
}
