package controllers

import (
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/sandbox"
	"cardiocheck/pkg/utils"
	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	assessmentService sandbox.AssessmentService
}

func NewAssessmentController(assessmentService sandbox.AssessmentService) *AssessmentController {
	return &AssessmentController{
		assessmentService: assessmentService,
	}
}

// CreateCheck godoc
// @Summary Submit a health check
// @Description Stores a complete intake form. Every field is required.
// @Tags Assessment
// @Accept json
// @Produce json
// @Param request body request_models.CreateCheckRequest true "Health check"
// @Success 201 {object} response_models.Envelope
// @Failure 400 {object} response_models.Envelope
// @Security BearerAuth
// @Router /checks [post]
func (a *AssessmentController) CreateCheck(c *gin.Context) {
	var req request_models.CreateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	if req.UserID != c.GetString("user_id") {
		utils.HandleServiceError(c, utils.ErrForbidden)
		return
	}

	check, err := a.assessmentService.CreateCheck(c.Request.Context(), req.UserID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, check, "Health check recorded")
}

// Predict godoc
// @Summary Request a prediction for a check
// @Tags Assessment
// @Accept json
// @Produce json
// @Param request body request_models.PredictionRequest true "Check id"
// @Success 200 {object} response_models.Envelope
// @Failure 403 {object} response_models.Envelope
// @Security BearerAuth
// @Router /predictions [post]
func (a *AssessmentController) Predict(c *gin.Context) {
	var req request_models.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	pred, err := a.assessmentService.Predict(c.Request.Context(), c.GetString("user_id"), req.CheckID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, pred, "Prediction ready")
}

func (a *AssessmentController) ListPredictions(c *gin.Context) {
	list, err := a.assessmentService.ListPredictions(c.Request.Context(), c.Param("userId"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, list, "Predictions fetched successfully")
}
