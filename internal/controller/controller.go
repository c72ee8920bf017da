package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/release"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/lshigami/pblagro/internal/service"
	"github.com/rs/zerolog/log"
)

const serviceName = "pbl-agro-api"

// statusOf maps a service error to the HTTP status the API answers with.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrLearnerNotFound),
		errors.Is(err, service.ErrChallengeNotFound),
		errors.Is(err, service.ErrContentNotFound),
		errors.Is(err, service.ErrScheduleNotFound),
		errors.Is(err, service.ErrNoAnswer),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyProfile),
		errors.Is(err, service.ErrInvalidReleaseTime),
		errors.Is(err, service.ErrEmptyCohort):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAnswerFinalized),
		errors.Is(err, release.ErrSweepInProgress),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, service.ErrProfileIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrEvaluationFailed):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrRunnerClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a dto.ErrorResponse. Client errors carry the error text as the message;
// server errors carry msg and the error text as a detail.
func RespondError(ctx *gin.Context, err error, msg string) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", ctx.FullPath()).Int("status", status).Msg(msg)
		ctx.JSON(status, dto.ErrorResponse{Message: msg, Details: []string{err.Error()}})
		return
	}
	log.Warn().Err(err).Str("path", ctx.FullPath()).Int("status", status).Msg(msg)
	ctx.JSON(status, dto.ErrorResponse{Message: err.Error()})
}

// BindError answers a request whose body or query failed validation.
func BindError(ctx *gin.Context, err error) {
	log.Warn().Err(err).Str("path", ctx.FullPath()).Msg("Invalid request")
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router / [get]
func Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Service: serviceName})
}
