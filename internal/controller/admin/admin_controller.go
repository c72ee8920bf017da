package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/pblagro/internal/controller"
	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminController struct {
	scheduleService  service.ScheduleService
	challengeService service.ChallengeService
}

func NewAdminController(ss service.ScheduleService, cs service.ChallengeService) *AdminController {
	return &AdminController{scheduleService: ss, challengeService: cs}
}

// ListContents godoc
// @Summary (Admin) List active content units
// @Tags Admin - Curriculum
// @Produce json
// @Security BearerAuth
// @Param module query string false "Only units of this module"
// @Success 200 {array} dto.ContentUnitResponse
// @Failure 403 {object} dto.ErrorResponse "Admin access required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/contents [get]
func (c *AdminController) ListContents(ctx *gin.Context) {
	units, err := c.scheduleService.ListContents(ctx.Request.Context(), strings.TrimSpace(ctx.Query("module")))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to list contents")
		return
	}
	ctx.JSON(http.StatusOK, units)
}

// ListCohorts godoc
// @Summary (Admin) List the cohorts learners belong to
// @Tags Admin - Learners
// @Produce json
// @Security BearerAuth
// @Success 200 {array} string
// @Failure 403 {object} dto.ErrorResponse "Admin access required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/cohorts [get]
func (c *AdminController) ListCohorts(ctx *gin.Context) {
	cohorts, err := c.scheduleService.ListCohorts(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, err, "Failed to list cohorts")
		return
	}
	ctx.JSON(http.StatusOK, cohorts)
}

// GetCurriculum godoc
// @Summary (Admin) Show a cohort's curriculum
// @Description An empty list means the cohort follows every active content unit.
// @Tags Admin - Curriculum
// @Produce json
// @Security BearerAuth
// @Param cohort path string true "Cohort"
// @Success 200 {array} dto.ContentUnitResponse
// @Failure 403 {object} dto.ErrorResponse "Admin access required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/cohorts/{cohort}/curriculum [get]
func (c *AdminController) GetCurriculum(ctx *gin.Context) {
	units, err := c.scheduleService.Curriculum(ctx.Request.Context(), ctx.Param("cohort"))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to load curriculum")
		return
	}
	ctx.JSON(http.StatusOK, units)
}

// SetCurriculum godoc
// @Summary (Admin) Replace a cohort's curriculum
// @Description Units are studied in the order given. An empty list clears the curriculum.
// @Tags Admin - Curriculum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cohort path string true "Cohort"
// @Param curriculum body dto.CurriculumRequest true "Ordered content unit ids"
// @Success 200 {array} dto.ContentUnitResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 404 {object} dto.ErrorResponse "Content unit not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/cohorts/{cohort}/curriculum [put]
func (c *AdminController) SetCurriculum(ctx *gin.Context) {
	var req dto.CurriculumRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	units, err := c.scheduleService.SetCurriculum(ctx.Request.Context(), ctx.Param("cohort"), req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to store curriculum")
		return
	}
	ctx.JSON(http.StatusOK, units)
}

// LearnerTotal godoc
// @Summary (Admin) Count registered learners
// @Tags Admin - Learners
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CountResponse
// @Failure 403 {object} dto.ErrorResponse "Admin access required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/learners/total [get]
func (c *AdminController) LearnerTotal(ctx *gin.Context) {
	total, err := c.scheduleService.LearnerTotal(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, err, "Failed to count learners")
		return
	}
	ctx.JSON(http.StatusOK, dto.CountResponse{Total: total})
}

// ListSchedules godoc
// @Summary (Admin) List the most recent schedule entries
// @Tags Admin - Schedules
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ScheduleResponse
// @Failure 403 {object} dto.ErrorResponse "Admin access required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/schedules [get]
func (c *AdminController) ListSchedules(ctx *gin.Context) {
	entries, err := c.scheduleService.List(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, err, "Failed to list schedule entries")
		return
	}
	ctx.JSON(http.StatusOK, entries)
}

// CreateSchedule godoc
// @Summary (Admin) Schedule the release of a content unit
// @Description release_at is ISO 8601. Without an offset it is read in the release time zone. release_now applies the entry immediately.
// @Tags Admin - Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param schedule body dto.CreateScheduleRequest true "Schedule entry"
// @Success 201 {object} dto.ScheduleResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body or timestamp"
// @Failure 404 {object} dto.ErrorResponse "Content unit not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/schedules [post]
func (c *AdminController) CreateSchedule(ctx *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	entry, err := c.scheduleService.Create(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to create schedule entry")
		return
	}
	ctx.JSON(http.StatusCreated, entry)
}

// ReleaseSchedule godoc
// @Summary (Admin) Release a schedule entry now
// @Tags Admin - Schedules
// @Produce json
// @Security BearerAuth
// @Param id path int true "Schedule entry ID"
// @Success 200 {object} dto.ScheduleResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid ID"
// @Failure 404 {object} dto.ErrorResponse "Schedule entry not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/schedules/{id}/release [post]
func (c *AdminController) ReleaseSchedule(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid schedule entry ID format"})
		return
	}
	entry, err := c.scheduleService.ForceRelease(ctx.Request.Context(), uint(id))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to release schedule entry")
		return
	}
	log.Info().Uint64("entryID", id).Msg("Schedule entry released by admin")
	ctx.JSON(http.StatusOK, entry)
}

// Sweep godoc
// @Summary (Admin) Run a release sweep now
// @Tags Admin - Schedules
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SweepResponse
// @Failure 409 {object} dto.ErrorResponse "A sweep is already running"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/schedules/sweep [post]
func (c *AdminController) Sweep(ctx *gin.Context) {
	report, err := c.scheduleService.Sweep(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, err, "Release sweep failed")
		return
	}
	ctx.JSON(http.StatusOK, report)
}

// GenerateForLearner godoc
// @Summary (Admin) Start challenge generation for a learner
// @Description Fills in whatever challenges the learner is missing. "admitted" is false when a job is already running.
// @Tags Admin - Learners
// @Produce json
// @Security BearerAuth
// @Param national_id path string true "Learner national id"
// @Success 202 {object} dto.GenerationTriggerResponse
// @Failure 404 {object} dto.ErrorResponse "Learner not found"
// @Failure 422 {object} dto.ErrorResponse "Profile not completed"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Failure 503 {object} dto.ErrorResponse "Server shutting down"
// @Router /admin/learners/{national_id}/generate [post]
func (c *AdminController) GenerateForLearner(ctx *gin.Context) {
	admitted, err := c.challengeService.TriggerGeneration(ctx.Request.Context(), ctx.Param("national_id"))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to start generation")
		return
	}
	ctx.JSON(http.StatusAccepted, dto.GenerationTriggerResponse{Admitted: admitted})
}
