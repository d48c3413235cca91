package store

import (
	"context"
	"time"

	"gobarber/backend/internal/domain"
)

const PageSize = 20

type AppointmentRepository interface {
	// FindActive loads a non-canceled appointment with its client and provider.
	FindActive(ctx context.Context, id int64) (domain.Appointment, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Appointment, error)
	ListByProvider(ctx context.Context, providerID int64, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	// Cancel stamps canceled_at unless another request already did.
	Cancel(ctx context.Context, appt domain.Appointment, at time.Time) (domain.Appointment, error)

	InProviderTransaction(ctx context.Context, providerID int64, fn func(ctx context.Context, tx BookingTx) error) error
}

// BookingTx is the view of the store available while a provider's slots are
// locked.
type BookingTx interface {
	FindActiveAt(ctx context.Context, providerID int64, date time.Time) (domain.Appointment, error)
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)
}
