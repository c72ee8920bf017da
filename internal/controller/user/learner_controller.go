package user

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/pblagro/internal/controller"
	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/events"
	"github.com/lshigami/pblagro/internal/middleware"
	"github.com/lshigami/pblagro/internal/service"
	"github.com/rs/zerolog/log"
)

type LearnerController struct {
	learnerService   service.LearnerService
	challengeService service.ChallengeService
	scheduleService  service.ScheduleService
	hub              *events.Hub
}

func NewLearnerController(
	ls service.LearnerService,
	cs service.ChallengeService,
	ss service.ScheduleService,
	hub *events.Hub,
) *LearnerController {
	return &LearnerController{
		learnerService:   ls,
		challengeService: cs,
		scheduleService:  ss,
		hub:              hub,
	}
}

// callerID returns the national id resolved by the auth middleware. Routes using it sit behind RequireLearner.
func callerID(ctx *gin.Context) string {
	id, _ := middleware.IdentityFrom(ctx)
	return id.NationalID
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Tags Learner - Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.LearnerResponse
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 404 {object} dto.ErrorResponse "Learner not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /profile [get]
func (c *LearnerController) GetProfile(ctx *gin.Context) {
	profile, err := c.learnerService.GetProfile(ctx.Request.Context(), callerID(ctx))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to load profile")
		return
	}
	ctx.JSON(http.StatusOK, profile)
}

// SaveProfile godoc
// @Summary Create or update the caller's profile
// @Description Only the fields present in the body are changed. The learner is created on the first submission.
// @Tags Learner - Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body dto.ProfileRequest true "Profile fields"
// @Success 200 {object} dto.LearnerResponse
// @Failure 400 {object} dto.ErrorResponse "Empty or invalid body"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /profile [post]
func (c *LearnerController) SaveProfile(ctx *gin.Context) {
	var req dto.ProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	profile, err := c.learnerService.UpsertProfile(ctx.Request.Context(), callerID(ctx), req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to save profile")
		return
	}
	ctx.JSON(http.StatusOK, profile)
}

// ListChallenges godoc
// @Summary List the caller's released challenges
// @Description When the learner has no challenges yet and a completed profile, generation starts in the background and "generating" is true.
// @Tags Learner - Challenges
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ChallengeListResponse
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 404 {object} dto.ErrorResponse "Learner not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /challenges [get]
func (c *LearnerController) ListChallenges(ctx *gin.Context) {
	resp, err := c.challengeService.ListForLearner(ctx.Request.Context(), callerID(ctx))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to list challenges")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ChallengeStatus godoc
// @Summary Report whether the caller's challenges exist, are released or are being generated
// @Tags Learner - Challenges
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ChallengeStatusResponse
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 404 {object} dto.ErrorResponse "Learner not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /challenges/status [get]
func (c *LearnerController) ChallengeStatus(ctx *gin.Context) {
	resp, err := c.challengeService.Status(ctx.Request.Context(), callerID(ctx))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to load challenge status")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListContents godoc
// @Summary List active curriculum content units
// @Tags Learner - Curriculum
// @Produce json
// @Security BearerAuth
// @Param module query string false "Only units of this module"
// @Success 200 {array} dto.ContentUnitResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contents [get]
func (c *LearnerController) ListContents(ctx *gin.Context) {
	units, err := c.scheduleService.ListContents(ctx.Request.Context(), strings.TrimSpace(ctx.Query("module")))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to list contents")
		return
	}
	ctx.JSON(http.StatusOK, units)
}

// ListReleases godoc
// @Summary List content units already released to a cohort
// @Description Defaults to the caller's own cohort when the query parameter is absent.
// @Tags Learner - Curriculum
// @Produce json
// @Security BearerAuth
// @Param cohort query string false "Cohort name"
// @Success 200 {array} dto.ReleasedContentResponse
// @Failure 404 {object} dto.ErrorResponse "Learner not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /releases [get]
func (c *LearnerController) ListReleases(ctx *gin.Context) {
	cohort := strings.TrimSpace(ctx.Query("cohort"))
	if cohort == "" {
		profile, err := c.learnerService.GetProfile(ctx.Request.Context(), callerID(ctx))
		if err != nil {
			controller.RespondError(ctx, err, "Failed to resolve cohort")
			return
		}
		cohort = profile.Cohort
	}
	releases, err := c.scheduleService.VisibleContents(ctx.Request.Context(), cohort)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to list releases")
		return
	}
	ctx.JSON(http.StatusOK, releases)
}

// Events godoc
// @Summary Stream notifications for the caller
// @Description Server-sent events: "challenges_generated" on the learner's channel and "content_released" on the cohort's channel.
// @Tags Learner - Events
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Router /events [get]
func (c *LearnerController) Events(ctx *gin.Context) {
	nationalID := callerID(ctx)
	client := c.hub.NewClient(nationalID)
	defer c.hub.Remove(client)

	c.hub.Subscribe(client, nationalID)
	if profile, err := c.learnerService.GetProfile(ctx.Request.Context(), nationalID); err == nil && profile.Cohort != "" {
		c.hub.Subscribe(client, events.CohortChannel(profile.Cohort))
	}

	log.Debug().Str("nationalID", nationalID).Str("clientID", client.ID.String()).Msg("Event stream opened")
	c.hub.Serve(ctx.Writer, ctx.Request, client)
	log.Debug().Str("nationalID", nationalID).Str("clientID", client.ID.String()).Msg("Event stream closed")
}
