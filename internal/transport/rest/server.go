package rest

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/service/appointments"
	"gobarber/backend/internal/service/sessions"
	"gobarber/backend/internal/service/users"
)

type appointmentsService interface {
	Request(ctx context.Context, in appointments.RequestInput) (domain.Appointment, error)
	Cancel(ctx context.Context, appointmentID, userID int64) (domain.Appointment, error)
	List(ctx context.Context, userID int64, page int) ([]domain.Appointment, error)
	Schedule(ctx context.Context, providerID int64, date string) ([]domain.Appointment, error)
	Available(ctx context.Context, providerID int64, dateMillis int64) ([]domain.AvailableSlot, error)
}

type usersService interface {
	Register(ctx context.Context, in users.RegisterInput) (domain.User, error)
	ListProviders(ctx context.Context) ([]domain.User, error)
}

type sessionsService interface {
	Create(ctx context.Context, email, password string) (sessions.Session, error)
}

type notificationsService interface {
	List(ctx context.Context, userID int64) ([]domain.Notification, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Appointments   appointmentsService
	Users          usersService
	Sessions       sessionsService
	Notifications  notificationsService
	Tokens         TokenParser
	DB             Pinger
	LoginLimiter   *RateLimiter
	RequestTimeout time.Duration
	Now            func() time.Time
	Log            *slog.Logger
}

type handlers struct {
	appts         appointmentsService
	users         usersService
	sessions      sessionsService
	notifications notificationsService
	db            Pinger
	now           func() time.Time
	log           *slog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	log := d.Log.With(slog.String("component", "http"))

	h := &handlers{
		appts:         d.Appointments,
		users:         d.Users,
		sessions:      d.Sessions,
		notifications: d.Notifications,
		db:            d.DB,
		now:           d.Now,
		log:           log,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log), requestTimeout(d.RequestTimeout))

	r.GET("/healthz", h.health)
	r.POST("/users", h.register)
	login := rateLimit(d.LoginLimiter)
	r.POST("/sessions", login, h.signIn)
	r.POST("/session", login, h.signIn)

	authed := r.Group("/", requireAuth(d.Tokens))
	authed.GET("/providers", h.providers)
	authed.GET("/providers/:providerId/available", h.available)
	authed.POST("/appointments", h.createAppointment)
	authed.GET("/appointments", h.listAppointments)
	authed.DELETE("/appointments/:id", h.cancelAppointment)
	authed.GET("/schedule", h.schedule)
	authed.GET("/notifications", h.listNotifications)

	return r
}
