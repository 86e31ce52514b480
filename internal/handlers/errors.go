package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jee-solver/internal/client"
	"jee-solver/internal/dto"
	"jee-solver/internal/questionbank"
	"jee-solver/internal/repository"
	"jee-solver/internal/service"
	"jee-solver/internal/session"
	"jee-solver/pkg/validator"
)

// writeError maps domain errors onto the JSON error envelope.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, session.ErrUnknownQuestion),
		errors.Is(err, questionbank.ErrUnknownSubject),
		errors.Is(err, questionbank.ErrUnknownYear):
		dto.JsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		dto.JsonError(c, http.StatusForbidden, "You do not have access to this resource")
	case errors.Is(err, session.ErrInvalidOption),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrSubjectRequired),
		errors.Is(err, service.ErrInvalidQuestion),
		errors.Is(err, validator.ErrUnsupportedUpload),
		errors.Is(err, validator.ErrEmptyUpload):
		dto.JsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, validator.ErrUploadTooLarge):
		dto.JsonError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, session.ErrNotInProgress):
		dto.JsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, client.ErrUpstream),
		errors.Is(err, service.ErrSolverUnavailable):
		dto.JsonError(c, http.StatusBadGateway, "The AI service is unavailable, please try again")
	default:
		_ = c.Error(err)
		dto.JsonError(c, http.StatusInternalServerError)
	}
}
