package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rostering_backend/internal/middleware"
	"rostering_backend/internal/services"
	"rostering_backend/pkg/utils"
)

// respondServiceError logs err and writes the matching status for its category.
// fallback is the message used for unexpected failures.
func respondServiceError(c *gin.Context, err error, op, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.LogDebug(op + ": " + err.Error())
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case errors.Is(err, services.ErrValidation):
		utils.LogDebug(op + ": " + err.Error())
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	case errors.Is(err, services.ErrConflict):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	case errors.Is(err, services.ErrUnauthorized):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), ""))
	case errors.Is(err, services.ErrForbidden):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, err.Error(), ""))
	default:
		utils.LogError(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

// bindJSON binds the body into req or writes a 400.
func bindJSON(c *gin.Context, req interface{}, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.LogDebug(op + ": failed to bind JSON: " + err.Error())
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return false
	}
	return true
}

// idParam parses a positive integer path parameter or writes a 400.
func idParam(c *gin.Context, name, label string) (int64, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+label+" ID format.", err.Error()))
		return 0, false
	}
	return id, true
}

// dateParam parses a YYYY-MM-DD path parameter or writes a 400.
func dateParam(c *gin.Context, name string) (*time.Time, bool) {
	d, err := utils.ParseDate(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date, use YYYY-MM-DD.", err.Error()))
		return nil, false
	}
	return &d, true
}

func currentUser(c *gin.Context) (int64, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
	}
	return id, ok
}
