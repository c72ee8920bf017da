package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/lshigami/pblagro/internal/controller"
	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/middleware"
	"github.com/lshigami/pblagro/internal/service"
	"github.com/rs/zerolog/log"
)

type AuthController struct {
	learnerService service.LearnerService
	auth           *middleware.Auth
}

func NewAuthController(ls service.LearnerService, auth *middleware.Auth) *AuthController {
	return &AuthController{learnerService: ls, auth: auth}
}

// Login godoc
// @Summary Log in with a national id
// @Description Issues a session token for a registered learner. The token is returned and also set as a cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "National id (CPF)"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 404 {object} dto.ErrorResponse "Learner not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}

	learner, err := c.learnerService.Authenticate(ctx.Request.Context(), req.NationalID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to log in")
		return
	}

	token, exp, err := c.auth.Sign(learner.NationalID, learner.Role)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to issue session token")
		return
	}
	c.auth.SetSessionCookie(ctx, token)

	resp := dto.LoginResponse{Token: token, ExpiresAt: exp}
	copier.Copy(&resp.Learner, learner)
	log.Info().Str("nationalID", learner.NationalID).Str("role", learner.Role).Msg("Learner logged in")
	ctx.JSON(http.StatusOK, resp)
}
