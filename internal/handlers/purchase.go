package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/courseloom/courseloom-backend/internal/apierr"
	"github.com/courseloom/courseloom-backend/internal/services"
)

type PurchaseHandler struct {
	purchaseService services.PurchaseService
}

func NewPurchaseHandler(purchaseService services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (ph *PurchaseHandler) CreateCheckoutSession(c *gin.Context) {
	var req struct {
		CourseID string `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.BadRequest("invalid_body", err))
		return
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	redirectURL, err := ph.purchaseService.CreateCheckoutSession(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": redirectURL})
}

// Webhook hands the raw body and the gateway's signature header to the
// orchestrator untouched; any re-encoding would break verification.
func (ph *PurchaseHandler) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		RespondError(c, apierr.BadRequest("unreadable_payload", err))
		return
	}
	signature := c.GetHeader("Stripe-Signature")
	if err := ph.purchaseService.HandleGatewayEvent(c.Request.Context(), payload, signature); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"received": true})
}

func (ph *PurchaseHandler) GetCourseDetailWithStatus(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_course_id", err))
		return
	}
	detail, err := ph.purchaseService.GetCourseDetailWithPurchaseStatus(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, detail)
}

func (ph *PurchaseHandler) GetCompletedPurchases(c *gin.Context) {
	purchases, err := ph.purchaseService.GetCompletedPurchases(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"purchases": purchases})
}
