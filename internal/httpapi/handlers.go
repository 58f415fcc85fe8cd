package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/scheduling-core/internal/availability"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/service"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	v, _ := strconv.Atoi(c.Query(key))
	return v
}

// GET /slots: при недоступном хранилище отдаём общую сетку с fallback=true.
func (h *handlers) getSlots(c *gin.Context) {
	slots, err := h.Slots.ComputeSlots(c.Request.Context(),
		c.Query("professional_id"), c.Query("service_id"), c.Query("date"))
	if errors.Is(err, availability.ErrUnavailable) {
		loggerFrom(c).Warn("slots fallback", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"slots": availability.GenericSlots(h.fallbackStep), "fallback": true})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots, "fallback": false})
}

func (h *handlers) getSlotRange(c *gin.Context) {
	days, err := availability.ComputeRange(c.Request.Context(), h.Slots,
		c.Query("professional_id"), c.Query("service_id"), c.Query("from"), c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

func (h *handlers) listAppointments(c *gin.Context) {
	page, err := h.Booking.ListAppointments(c.Request.Context(), service.AppointmentQuery{
		From:           c.Query("from"),
		To:             c.Query("to"),
		ProfessionalID: c.Query("professional_id"),
		Status:         c.Query("status"),
		Page:           queryInt(c, "page"),
		PageSize:       queryInt(c, "page_size"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageOf(page, toAppointment))
}

type bookRequest struct {
	ProfessionalID string `json:"professional_id" binding:"required"`
	ServiceID      string `json:"service_id"`
	ClientID       string `json:"client_id"`
	ClientName     string `json:"client_name"`
	Phone          string `json:"phone"`
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time" binding:"required"`
	Notes          string `json:"notes"`
	Source         string `json:"source"`
}

func (h *handlers) bookAppointment(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	a, err := h.Booking.Book(c.Request.Context(), service.BookRequest{
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		ClientID:       req.ClientID,
		ClientName:     req.ClientName,
		Phone:          req.Phone,
		Date:           req.Date,
		Time:           req.Time,
		Notes:          req.Notes,
		Source:         model.AppointmentSource(req.Source),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAppointment(a))
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handlers) updateAppointmentStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	a, err := h.Booking.UpdateStatus(c.Request.Context(), id, model.AppointmentStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointment(a))
}

func (h *handlers) listWeeklyAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	items, err := h.Schedule.ListWeeklyAvailability(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": toWeekly(items)})
}

type weeklyRequest struct {
	Days []service.DayTemplate `json:"days" binding:"required"`
}

func (h *handlers) upsertWeeklyAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req weeklyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	items, err := h.Schedule.UpsertWeeklyAvailability(c.Request.Context(), id, req.Days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": toWeekly(items)})
}

func (h *handlers) listBlocks(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	blocks, err := h.Schedule.ListBlocks(c.Request.Context(), id, c.Query("from"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]blockResponse, 0, len(blocks))
	for i := range blocks {
		out = append(out, toBlock(&blocks[i]))
	}
	c.JSON(http.StatusOK, gin.H{"blocks": out})
}

type blockRequest struct {
	Date   string `json:"date" binding:"required"`
	Start  string `json:"start_time"`
	End    string `json:"end_time"`
	Reason string `json:"reason"`
}

func (h *handlers) addBlock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	b, err := h.Schedule.AddBlock(c.Request.Context(), service.BlockRequest{
		ProfessionalID: id,
		Date:           req.Date,
		Start:          req.Start,
		End:            req.End,
		Reason:         req.Reason,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBlock(b))
}

func (h *handlers) deleteBlock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Schedule.DeleteBlock(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listNotifications(c *gin.Context) {
	unread, _ := strconv.ParseBool(c.Query("unread"))
	page, err := h.Notifications.List(c.Request.Context(), unread, queryInt(c, "page"), queryInt(c, "page_size"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageOf(page, toNotification))
}

func (h *handlers) markNotificationRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) markAllNotificationsRead(c *gin.Context) {
	n, err := h.Notifications.MarkAllRead(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

type impersonationRequest struct {
	CompanyID string `json:"company_id" binding:"required"`
}

// POST /admin/impersonation: начало сессии поддержки; дальше клиент шлёт X-Impersonate-Company.
func (h *handlers) startImpersonation(c *gin.Context) {
	var req impersonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	target, err := uuid.Parse(req.CompanyID)
	if err != nil {
		badRequest(c, "invalid company_id")
		return
	}
	scope, ok := tenant.FromContext(c.Request.Context())
	if !ok {
		writeError(c, tenant.ErrNoScope)
		return
	}
	scope, company, err := h.Impersonation.Start(c.Request.Context(), scope.ActorID, target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"company_id":   company.ID.String(),
		"company_name": company.Name,
		"header":       HeaderImpersonate,
		"actor_id":     scope.ActorID.String(),
	})
}

func (h *handlers) stopImpersonation(c *gin.Context) {
	if err := h.Impersonation.Stop(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
