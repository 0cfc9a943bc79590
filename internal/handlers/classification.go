package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/statspub/measures-backend/internal/services"
)

type ClassificationHandler struct {
	registry     services.ClassificationRegistryService
	standardiser *services.Standardiser
}

func NewClassificationHandler(registry services.ClassificationRegistryService, standardiser *services.Standardiser) *ClassificationHandler {
	return &ClassificationHandler{registry: registry, standardiser: standardiser}
}

func (ch *ClassificationHandler) List(c *gin.Context) {
	if code := c.Query("code"); code != "" {
		classification, err := ch.registry.GetClassificationByCode(c.Request.Context(), nil, code)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"classification": classification})
		return
	}
	classifications, err := ch.registry.ListClassifications(c.Request.Context(), nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"classifications": classifications})
}

func (ch *ClassificationHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	classification, err := ch.registry.GetClassificationByID(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"classification": classification})
}

type createClassificationRequest struct {
	Code      string `json:"code" binding:"required"`
	Family    string `json:"family" binding:"required"`
	Subfamily string `json:"subfamily"`
	Title     string `json:"title" binding:"required"`
	Position  int    `json:"position"`
}

func (ch *ClassificationHandler) Create(c *gin.Context) {
	var req createClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	classification, err := ch.registry.CreateClassification(c.Request.Context(), nil,
		req.Code, req.Family, req.Subfamily, req.Title, req.Position)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"classification": classification})
}

type addValuesRequest struct {
	Values []string `json:"values" binding:"required"`
	Parent bool     `json:"parent"`
}

func (ch *ClassificationHandler) AddValues(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req addValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	if req.Parent {
		err = ch.registry.AddParentValuesToClassification(c.Request.Context(), nil, id, req.Values)
	} else {
		err = ch.registry.AddValuesToClassification(c.Request.Context(), nil, id, req.Values)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	classification, err := ch.registry.GetClassificationByID(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"classification": classification})
}

func (ch *ClassificationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ch.registry.DeleteClassification(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ch *ClassificationHandler) CleanupOrphans(c *gin.Context) {
	n, err := ch.registry.CleanupOrphanEthnicities(c.Request.Context(), nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": n})
}

type inferRequest struct {
	Values []string `json:"values" binding:"required"`
}

// Infer suggests the classification for a raw ethnicity breakdown, e.g.
// from a freshly uploaded chart's source data.
func (ch *ClassificationHandler) Infer(c *gin.Context) {
	var req inferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	classification, err := ch.registry.InferClassification(c.Request.Context(), nil, req.Values, ch.standardiser)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	standardised := ch.standardiser.StandardiseAll(req.Values)
	link := services.BuildClassificationLink(classification, standardised)
	RespondOK(c, gin.H{
		"classification": classification,
		"link":           link,
	})
}
