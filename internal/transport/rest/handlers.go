package rest

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/service"
	"gobarber/backend/internal/service/appointments"
	"gobarber/backend/internal/service/users"
)

func (h *handlers) health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			h.log.Warn("health check failed", slog.Any("err", err))
			abortWithError(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) register(c *gin.Context) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Provider bool   `json:"provider"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Register(c.Request.Context(), users.RegisterInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Provider: in.Provider,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toUserView(u))
}

func (h *handlers) signIn(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.sessions.Create(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sessionView{Token: s.Token, User: toUserView(s.User)})
}

func (h *handlers) providers(c *gin.Context) {
	rows, err := h.users.ListProviders(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	out := make([]domain.UserSummary, 0, len(rows))
	for _, u := range rows {
		out = append(out, u.Summary())
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) available(c *gin.Context) {
	providerID, err := strconv.ParseInt(c.Param("providerId"), 10, 64)
	if err != nil {
		fail(c, h.log, service.Validation("providerId must be a number"))
		return
	}
	date, err := strconv.ParseInt(c.Query("date"), 10, 64)
	if err != nil {
		fail(c, h.log, service.Validation("invalid date"))
		return
	}

	slots, err := h.appts.Available(c.Request.Context(), providerID, date)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *handlers) createAppointment(c *gin.Context) {
	var in struct {
		ProviderID int64  `json:"providerId"`
		Date       string `json:"date"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	appt, err := h.appts.Request(c.Request.Context(), appointments.RequestInput{
		ClientID:   currentUser(c),
		ProviderID: in.ProviderID,
		Date:       in.Date,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentView(appt, h.now()))
}

func (h *handlers) listAppointments(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	rows, err := h.appts.List(c.Request.Context(), currentUser(c), page)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentViews(rows, h.now()))
}

func (h *handlers) cancelAppointment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, h.log, service.Validation("appointment id must be a number"))
		return
	}

	appt, err := h.appts.Cancel(c.Request.Context(), id, currentUser(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentView(appt, h.now()))
}

func (h *handlers) schedule(c *gin.Context) {
	rows, err := h.appts.Schedule(c.Request.Context(), currentUser(c), c.Query("date"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentViews(rows, h.now()))
}

func (h *handlers) listNotifications(c *gin.Context) {
	rows, err := h.notifications.List(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []domain.Notification{}
	}
	c.JSON(http.StatusOK, rows)
}
