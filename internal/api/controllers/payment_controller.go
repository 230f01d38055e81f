package controllers

import (
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/internal/sandbox"
	"cardiocheck/pkg/utils"
	"context"
	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	billingService sandbox.BillingService
}

func NewPaymentController(billingService sandbox.BillingService) *PaymentController {
	return &PaymentController{
		billingService: billingService,
	}
}

// CreatePayment godoc
// @Summary Create a pending payment for a plan
// @Description The amount and currency must match the plan's price
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.CreatePaymentRequest true "Create Payment Request"
// @Success 201 {object} response_models.Envelope
// @Failure 400 {object} response_models.Envelope
// @Security BearerAuth
// @Router /payments [post]
func (p *PaymentController) CreatePayment(c *gin.Context) {
	var request request_models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	userID := c.GetString("user_id")
	if request.UserID != userID {
		utils.HandleServiceError(c, utils.ErrForbidden)
		return
	}

	payment, err := p.billingService.CreatePayment(c.Request.Context(), userID, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, payment, "Payment created")
}

// CompletePayment godoc
// @Summary Settle a pending payment
// @Description Marks the payment successful and activates the plan it paid for
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment id"
// @Param request body request_models.CompletePaymentRequest true "Provider transaction"
// @Success 200 {object} response_models.Envelope
// @Security BearerAuth
// @Router /payments/{id}/complete [put]
func (p *PaymentController) CompletePayment(c *gin.Context) {
	var request request_models.CompletePaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	payment, err := p.billingService.CompletePayment(c.Request.Context(), c.GetString("user_id"), c.Param("id"), request.TransactionID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, payment, "Payment completed")
}

func (p *PaymentController) FailPayment(c *gin.Context) {
	var request request_models.FailPaymentRequest
	// the reason is optional, so an empty body is fine
	_ = c.ShouldBindJSON(&request)

	payment, err := p.billingService.FailPayment(c.Request.Context(), c.GetString("user_id"), c.Param("id"), request.Reason)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, payment, "Payment marked as failed")
}

func (p *PaymentController) CancelPayment(c *gin.Context) {
	p.transition(c, p.billingService.CancelPayment, "Payment canceled")
}

func (p *PaymentController) RefundPayment(c *gin.Context) {
	p.transition(c, p.billingService.RefundPayment, "Payment refunded")
}

func (p *PaymentController) transition(c *gin.Context,
	call func(ctx context.Context, userID, paymentID string) (response_models.PaymentResponse, error),
	message string) {

	payment, err := call(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, payment, message)
}

func (p *PaymentController) ListPayments(c *gin.Context) {
	list, err := p.billingService.ListPayments(c.Request.Context(), c.Param("userId"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, list, "Payments fetched successfully")
}

func (p *PaymentController) ListPaymentMethods(c *gin.Context) {
	list, err := p.billingService.ListPaymentMethods(c.Request.Context(), c.Param("userId"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, list, "Payment methods fetched successfully")
}

// AddPaymentMethod godoc
// @Summary Save a payment method
// @Description Only the type, brand and last four digits are stored
// @Tags Payment Methods
// @Accept json
// @Produce json
// @Param request body request_models.AddPaymentMethodRequest true "Payment method"
// @Success 201 {object} response_models.Envelope
// @Security BearerAuth
// @Router /payment-methods [post]
func (p *PaymentController) AddPaymentMethod(c *gin.Context) {
	var request request_models.AddPaymentMethodRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	userID := c.GetString("user_id")
	if request.UserID != userID {
		utils.HandleServiceError(c, utils.ErrForbidden)
		return
	}

	method, err := p.billingService.AddPaymentMethod(c.Request.Context(), userID, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, method, "Payment method added")
}

func (p *PaymentController) DeletePaymentMethod(c *gin.Context) {
	if err := p.billingService.DeletePaymentMethod(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Payment method deleted")
}

func (p *PaymentController) SetDefaultPaymentMethod(c *gin.Context) {
	if err := p.billingService.SetDefaultPaymentMethod(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Default payment method updated")
}
