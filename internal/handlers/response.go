package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	dommeasure "github.com/statspub/measures-backend/internal/domain/measure"
	"github.com/statspub/measures-backend/internal/platform/apierr"
	"github.com/statspub/measures-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps service sentinel errors onto HTTP statuses.
// Unrecognized errors become a 500 with no detail leakage beyond the
// message.
func RespondServiceError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}

	switch {
	case errors.Is(err, services.ErrPageNotFound),
		errors.Is(err, services.ErrDimensionNotFound),
		errors.Is(err, services.ErrClassificationNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrStaleUpdate):
		RespondError(c, http.StatusConflict, "stale_update", err)
	case errors.Is(err, services.ErrUpdateAlreadyExists):
		RespondError(c, http.StatusConflict, "version_exists", err)
	case errors.Is(err, services.ErrDuplicateClassification),
		errors.Is(err, services.ErrDuplicateEmail):
		RespondError(c, http.StatusConflict, "duplicate", err)
	case errors.Is(err, services.ErrClassificationInUse):
		RespondError(c, http.StatusConflict, "in_use", err)
	case errors.Is(err, dommeasure.ErrPageNotEditable),
		errors.Is(err, dommeasure.ErrRejectionImpossible),
		errors.Is(err, dommeasure.ErrNoNextState):
		RespondError(c, http.StatusConflict, "invalid_state", err)
	case errors.Is(err, dommeasure.ErrInvalidVersion):
		RespondError(c, http.StatusBadRequest, "invalid_version", err)
	case errors.Is(err, services.ErrCouldNotClassify):
		RespondError(c, http.StatusUnprocessableEntity, "could_not_classify", err)
	case errors.Is(err, services.ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
