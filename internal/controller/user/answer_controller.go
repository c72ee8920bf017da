package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/pblagro/internal/controller"
	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/service"
)

type AnswerController struct {
	answerService service.AnswerService
}

func NewAnswerController(as service.AnswerService) *AnswerController {
	return &AnswerController{answerService: as}
}

// Evaluate godoc
// @Summary Grade an answer without saving it
// @Tags Learner - Answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer body dto.EvaluateRequest true "Challenge and answer text"
// @Success 200 {object} dto.EvaluationResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 404 {object} dto.ErrorResponse "Challenge not found"
// @Failure 502 {object} dto.ErrorResponse "Evaluation failed"
// @Router /answers/evaluate [post]
func (c *AnswerController) Evaluate(ctx *gin.Context) {
	var req dto.EvaluateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	resp, err := c.answerService.Evaluate(ctx.Request.Context(), callerID(ctx), req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to evaluate answer")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Submit godoc
// @Summary Submit the next attempt for a challenge
// @Description The attempt is graded and stored. The attempt that reaches the limit is final and carries the model answer.
// @Tags Learner - Answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer body dto.SubmitAnswerRequest true "Challenge and answer text"
// @Success 201 {object} dto.AnswerResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 404 {object} dto.ErrorResponse "Challenge not found"
// @Failure 409 {object} dto.ErrorResponse "Answer already finalized"
// @Failure 502 {object} dto.ErrorResponse "Evaluation failed"
// @Router /answers [post]
func (c *AnswerController) Submit(ctx *gin.Context) {
	var req dto.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	resp, err := c.answerService.Submit(ctx.Request.Context(), callerID(ctx), req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to submit answer")
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// Finalize godoc
// @Summary Make the latest attempt definitive
// @Tags Learner - Answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param challenge body dto.FinalizeAnswerRequest true "Challenge id"
// @Success 200 {object} dto.AnswerResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 404 {object} dto.ErrorResponse "Challenge or answer not found"
// @Failure 502 {object} dto.ErrorResponse "Evaluation failed"
// @Router /answers/finalize [post]
func (c *AnswerController) Finalize(ctx *gin.Context) {
	var req dto.FinalizeAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	resp, err := c.answerService.Finalize(ctx.Request.Context(), callerID(ctx), req.ChallengeID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to finalize answer")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListAttempts godoc
// @Summary List the caller's attempts for a challenge
// @Tags Learner - Answers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Challenge ID"
// @Success 200 {array} dto.AnswerResponse
// @Failure 404 {object} dto.ErrorResponse "Challenge not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /challenges/{id}/answers [get]
func (c *AnswerController) ListAttempts(ctx *gin.Context) {
	attempts, err := c.answerService.ListAttempts(ctx.Request.Context(), callerID(ctx), ctx.Param("id"))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to list attempts")
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}
