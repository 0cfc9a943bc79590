package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/statspub/measures-backend/internal/domain"
	"github.com/statspub/measures-backend/internal/services"
)

type DimensionHandler struct {
	dimensionService services.DimensionService
}

func NewDimensionHandler(dimensionService services.DimensionService) *DimensionHandler {
	return &DimensionHandler{dimensionService: dimensionService}
}

func dimensionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

type createDimensionRequest struct {
	MeasureVersionID uuid.UUID `json:"measure_version_id" binding:"required"`
	Title            string    `json:"title" binding:"required"`
	TimePeriod       string    `json:"time_period"`
	Summary          string    `json:"summary"`
}

func (dh *DimensionHandler) CreateDimension(c *gin.Context) {
	var req createDimensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	d, err := dh.dimensionService.CreateDimension(c.Request.Context(), nil,
		req.MeasureVersionID, req.Title, req.TimePeriod, req.Summary)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"dimension": d})
}

func (dh *DimensionHandler) GetDimension(c *gin.Context) {
	id, ok := dimensionID(c)
	if !ok {
		return
	}
	d, err := dh.dimensionService.GetDimension(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"dimension":             d,
		"classification_source": d.ClassificationSource(),
	})
}

type updateDimensionRequest struct {
	Title      *string `json:"title"`
	TimePeriod *string `json:"time_period"`
	Summary    *string `json:"summary"`
}

func (dh *DimensionHandler) UpdateDimension(c *gin.Context) {
	id, ok := dimensionID(c)
	if !ok {
		return
	}
	var req updateDimensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	d, err := dh.dimensionService.UpdateDimension(c.Request.Context(), nil, id, services.DimensionUpdate{
		Title:      req.Title,
		TimePeriod: req.TimePeriod,
		Summary:    req.Summary,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"dimension": d})
}

func (dh *DimensionHandler) DeleteDimension(c *gin.Context) {
	id, ok := dimensionID(c)
	if !ok {
		return
	}
	if err := dh.dimensionService.DeleteDimension(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type linkPayload struct {
	ClassificationID uuid.UUID `json:"classification_id" binding:"required"`
	IncludesParents  bool      `json:"includes_parents"`
	IncludesAll      bool      `json:"includes_all"`
	IncludesUnknown  bool      `json:"includes_unknown"`
}

type setChartRequest struct {
	ChartObject datatypes.JSON `json:"chart_object" binding:"required"`
	Settings    datatypes.JSON `json:"settings"`
	Link        *linkPayload   `json:"link"`
}

func (p *linkPayload) toLink() *types.ClassificationLink {
	if p == nil {
		return nil
	}
	return &types.ClassificationLink{
		ClassificationID: p.ClassificationID,
		IncludesParents:  p.IncludesParents,
		IncludesAll:      p.IncludesAll,
		IncludesUnknown:  p.IncludesUnknown,
	}
}

func (dh *DimensionHandler) SetChart(c *gin.Context) {
	id, ok := dimensionID(c)
	if !ok {
		return
	}
	var req setChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	chart, err := dh.dimensionService.SetChart(c.Request.Context(), nil, id,
		req.ChartObject, req.Settings, req.Link.toLink())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"chart": chart})
}

type setTableRequest struct {
	TableObject datatypes.JSON `json:"table_object" binding:"required"`
	Settings    datatypes.JSON `json:"settings"`
	Link        *linkPayload   `json:"link"`
}

func (dh *DimensionHandler) SetTable(c *gin.Context) {
	id, ok := dimensionID(c)
	if !ok {
		return
	}
	var req setTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	table, err := dh.dimensionService.SetTable(c.Request.Context(), nil, id,
		req.TableObject, req.Settings, req.Link.toLink())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"table": table})
}

func (dh *DimensionHandler) DeleteChart(c *gin.Context) {
	id, ok := dimensionID(c)
	if !ok {
		return
	}
	if err := dh.dimensionService.DeleteChart(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (dh *DimensionHandler) DeleteTable(c *gin.Context) {
	id, ok := dimensionID(c)
	if !ok {
		return
	}
	if err := dh.dimensionService.DeleteTable(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (dh *DimensionHandler) LinkClassification(c *gin.Context) {
	id, ok := dimensionID(c)
	if !ok {
		return
	}
	var req linkPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	link, err := dh.dimensionService.LinkClassificationToDimension(c.Request.Context(), nil, id,
		req.ClassificationID, req.IncludesParents, req.IncludesAll, req.IncludesUnknown)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"dimension_classification": link})
}

// Reconcile recomputes the dimension-level classification from the
// chart/table links on demand.
func (dh *DimensionHandler) Reconcile(c *gin.Context) {
	id, ok := dimensionID(c)
	if !ok {
		return
	}
	if err := dh.dimensionService.UpdateDimensionClassificationFromChartOrTable(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	d, err := dh.dimensionService.GetDimension(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"dimension":             d,
		"classification_source": d.ClassificationSource(),
	})
}
