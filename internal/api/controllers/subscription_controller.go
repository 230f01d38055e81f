package controllers

import (
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/sandbox"
	"cardiocheck/pkg/utils"
	"github.com/gin-gonic/gin"
)

type SubscriptionController struct {
	billingService sandbox.BillingService
}

func NewSubscriptionController(billingService sandbox.BillingService) *SubscriptionController {
	return &SubscriptionController{
		billingService: billingService,
	}
}

// ListPlans godoc
// @Summary List subscription plans
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} response_models.Envelope
// @Security BearerAuth
// @Router /subscriptions/plans [get]
func (s *SubscriptionController) ListPlans(c *gin.Context) {
	plans, err := s.billingService.ListPlans(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, plans, "Plans fetched successfully")
}

// GetUserSubscription answers with null data when the user never subscribed.
func (s *SubscriptionController) GetUserSubscription(c *gin.Context) {
	sub, err := s.billingService.GetUserSubscription(c.Request.Context(), c.Param("userId"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, sub, "Subscription fetched successfully")
}

// CreateSubscription godoc
// @Summary Subscribe to a plan
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body request_models.CreateSubscriptionRequest true "Plan to subscribe to"
// @Success 201 {object} response_models.Envelope
// @Security BearerAuth
// @Router /subscriptions [post]
func (s *SubscriptionController) CreateSubscription(c *gin.Context) {
	var req request_models.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	if req.UserID != c.GetString("user_id") {
		utils.HandleServiceError(c, utils.ErrForbidden)
		return
	}

	sub, err := s.billingService.CreateSubscription(c.Request.Context(), req.UserID, req.PlanID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, sub, "Subscription created")
}

func (s *SubscriptionController) CancelSubscription(c *gin.Context) {
	sub, err := s.billingService.CancelSubscription(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, sub, "Subscription canceled")
}
