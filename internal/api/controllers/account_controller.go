package controllers

import (
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/sandbox"
	"cardiocheck/pkg/utils"
	"github.com/gin-gonic/gin"
)

type AccountController struct {
	authService sandbox.AuthService
}

func NewAccountController(authService sandbox.AuthService) *AccountController {
	return &AccountController{
		authService: authService,
	}
}

// Login godoc
// @Summary Login to an account
// @Description Authenticate a user and return an access/refresh token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.LoginRequest true "Login payload"
// @Success 200 {object} response_models.Envelope
// @Failure 401 {object} response_models.Envelope
// @Router /auth/login [post]
func (a *AccountController) Login(c *gin.Context) {
	var req request_models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	resp, err := a.authService.Login(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Login successful")
}

// Refresh godoc
// @Summary Exchange a refresh token
// @Description Rotates the refresh token and issues a new access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.RefreshRequest true "Refresh payload"
// @Success 200 {object} response_models.Envelope
// @Failure 401 {object} response_models.Envelope
// @Router /auth/refresh [post]
func (a *AccountController) Refresh(c *gin.Context) {
	var req request_models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	tokens, err := a.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, tokens, "Token refreshed")
}

// Logout revokes the refresh token. An unknown token is not an error.
func (a *AccountController) Logout(c *gin.Context) {
	var req request_models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	if err := a.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Logged out")
}
