package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"greenloop/middleware"
	"greenloop/models"
	"greenloop/services"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Handlers exposes the greenloop API over gin.
type Handlers struct {
	lifecycle     *services.LifecycleService
	ledger        *services.LedgerService
	rewards       *services.RewardService
	notifications *services.NotificationService
	stats         *services.StatsService
	reportMap     *services.MapService
}

func NewHandlers(
	lifecycle *services.LifecycleService,
	ledger *services.LedgerService,
	rewards *services.RewardService,
	notifications *services.NotificationService,
	stats *services.StatsService,
	reportMap *services.MapService,
) *Handlers {
	return &Handlers{
		lifecycle:     lifecycle,
		ledger:        ledger,
		rewards:       rewards,
		notifications: notifications,
		stats:         stats,
		reportMap:     reportMap,
	}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "greenloop"})
}

// SubmitReport creates a waste report and awards the report bonus.
func (h *Handlers) SubmitReport(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	report, err := h.lifecycle.SubmitReport(c.Request.Context(), p, req)
	if err != nil {
		log.Errorf("Failed to create report for user %d: %v", p.UserID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create report"})
		return
	}
	c.JSON(http.StatusCreated, report)
}

// RecentReports lists the newest reports.
func (h *Handlers) RecentReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	reports, err := h.lifecycle.RecentReports(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("Failed to list recent reports: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// MyReports lists the caller's reports.
func (h *Handlers) MyReports(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	reports, err := h.lifecycle.ReportsByUser(c.Request.Context(), p.UserID)
	if err != nil {
		log.Errorf("Failed to list reports for user %d: %v", p.UserID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// CollectionTasks lists reports from the collector's perspective.
func (h *Handlers) CollectionTasks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	tasks, err := h.lifecycle.CollectionTasks(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("Failed to list collection tasks: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list tasks"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// ClaimTask claims a pending report for the calling collector.
func (h *Handlers) ClaimTask(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid task id"})
		return
	}

	err = h.lifecycle.ClaimTask(c.Request.Context(), p, reportID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "task not found"})
	case errors.Is(err, services.ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case err != nil:
		log.Errorf("Failed to claim task %d: %v", reportID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to claim task"})
	default:
		c.JSON(http.StatusOK, models.MessageResponse{Message: "task claimed"})
	}
}

// VerifyCollection verifies a claimed task with a collector photo.
func (h *Handlers) VerifyCollection(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid task id"})
		return
	}

	var req models.VerifyCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	outcome, err := h.lifecycle.VerifyCollection(c.Request.Context(), p, reportID, req.Image)
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "task not found"})
	case errors.Is(err, services.ErrNotCollector):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrVerificationFailed):
		// A mismatch or classifier failure is a terminal outcome for this
		// attempt; the collector may retry with another photo.
		resp := gin.H{"error": services.ErrVerificationFailed.Error()}
		if outcome != nil {
			resp["result"] = outcome.Result
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
	case err != nil:
		log.Errorf("Failed to verify task %d: %v", reportID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to verify task"})
	default:
		c.JSON(http.StatusOK, outcome)
	}
}

// CollectedWastes lists the caller's verified collections.
func (h *Handlers) CollectedWastes(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	collected, err := h.lifecycle.CollectedByCollector(c.Request.Context(), p.UserID)
	if err != nil {
		log.Errorf("Failed to list collected wastes for user %d: %v", p.UserID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list collected wastes"})
		return
	}
	c.JSON(http.StatusOK, collected)
}

// Balance returns the caller's derived point balance.
func (h *Handlers) Balance(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	balance, err := h.ledger.Balance(c.Request.Context(), p.UserID)
	if err != nil {
		log.Errorf("Failed to derive balance for user %d: %v", p.UserID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to derive balance"})
		return
	}
	c.JSON(http.StatusOK, models.BalanceResponse{UserID: p.UserID, Balance: balance})
}

// Transactions lists the caller's recent ledger entries.
func (h *Handlers) Transactions(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	transactions, err := h.ledger.RecentTransactions(c.Request.Context(), p.UserID, limit)
	if err != nil {
		log.Errorf("Failed to list transactions for user %d: %v", p.UserID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// AvailableRewards lists the reward catalog with the synthetic balance entry.
func (h *Handlers) AvailableRewards(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	rewards, err := h.rewards.AvailableRewards(c.Request.Context(), p.UserID)
	if err != nil {
		log.Errorf("Failed to list rewards for user %d: %v", p.UserID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list rewards"})
		return
	}
	c.JSON(http.StatusOK, rewards)
}

// Redeem converts points into a reward.
func (h *Handlers) Redeem(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	var req models.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.rewards.Redeem(c.Request.Context(), p, req.RewardID)
	switch {
	case errors.Is(err, services.ErrInsufficientPoints):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case err != nil:
		log.Errorf("Failed to redeem reward %d for user %d: %v", req.RewardID, p.UserID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to redeem reward"})
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// Notifications lists the caller's unread notifications.
func (h *Handlers) Notifications(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	notifications, err := h.notifications.Unread(c.Request.Context(), p.UserID)
	if err != nil {
		log.Errorf("Failed to list notifications for user %d: %v", p.UserID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead flips a notification's read flag.
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid notification id"})
		return
	}

	err = h.notifications.MarkRead(c.Request.Context(), p.UserID, notificationID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "notification not found"})
	case err != nil:
		log.Errorf("Failed to mark notification %d read: %v", notificationID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to mark notification read"})
	default:
		c.JSON(http.StatusOK, models.MessageResponse{Message: "notification marked read"})
	}
}

// ReportMap returns clustered report locations for a viewport.
func (h *Handlers) ReportMap(c *gin.Context) {
	var vp models.ViewPort
	if err := c.ShouldBindQuery(&vp); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	results, err := h.reportMap.ReportMap(c.Request.Context(), vp)
	if err != nil {
		log.Errorf("Failed to aggregate report map: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to aggregate report map"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// ImpactStats returns the caller's impact figures.
func (h *Handlers) ImpactStats(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	stats, err := h.stats.UserStats(c.Request.Context(), p.UserID)
	if err != nil {
		log.Errorf("Failed to compute stats for user %d: %v", p.UserID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
