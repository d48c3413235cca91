package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/jobs"
	"gobarber/backend/internal/service"
	"gobarber/backend/internal/store"
)

type DateFormatter interface {
	Format(t time.Time) string
}

type Deps struct {
	Users        store.UserRepository
	Appointments store.AppointmentRepository
	Jobs         jobs.Dispatcher
	Dates        DateFormatter
	Location     *time.Location
	Now          func() time.Time
	Log          *slog.Logger
}

type Service struct {
	users store.UserRepository
	appts store.AppointmentRepository
	jobs  jobs.Dispatcher
	dates DateFormatter
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger
}

func NewService(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Service{
		users: d.Users,
		appts: d.Appointments,
		jobs:  d.Jobs,
		dates: d.Dates,
		loc:   d.Location,
		now:   d.Now,
		log:   d.Log.With(slog.String("component", "service.appointments")),
	}
}

type RequestInput struct {
	ClientID   int64
	ProviderID int64
	Date       string
}

// Request books the hour containing in.Date with the provider and leaves the
// provider a notification in the same transaction.
func (s *Service) Request(ctx context.Context, in RequestInput) (domain.Appointment, error) {
	if in.ClientID <= 0 {
		return domain.Appointment{}, service.Validation("user is required")
	}
	if in.ProviderID <= 0 {
		return domain.Appointment{}, service.Validation("providerId is required")
	}
	requested, ok := ParseDate(in.Date, s.loc)
	if !ok {
		return domain.Appointment{}, service.Validation("date must be an ISO-8601 timestamp")
	}
	if in.ProviderID == in.ClientID {
		return domain.Appointment{}, ErrSelfBooking
	}

	slot := domain.SlotOf(requested, s.loc)
	if slot.Before(s.now()) {
		return domain.Appointment{}, ErrPastDate
	}

	provider, err := s.users.GetByID(ctx, in.ProviderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, ErrNotAProvider
		}
		return domain.Appointment{}, fmt.Errorf("load provider: %w", err)
	}
	if !provider.Provider {
		return domain.Appointment{}, ErrNotAProvider
	}

	client, err := s.users.GetByID(ctx, in.ClientID)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("load client: %w", err)
	}
	content := fmt.Sprintf("New appointment from %s for %s", client.Name, s.dates.Format(slot))

	var created domain.Appointment
	err = s.appts.InProviderTransaction(ctx, provider.ID, func(ctx context.Context, tx store.BookingTx) error {
		_, err := tx.FindActiveAt(ctx, provider.ID, slot)
		switch {
		case err == nil:
			return store.ErrSlotTaken
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		a, err := tx.CreateAppointment(ctx, domain.Appointment{
			UserID:     client.ID,
			ProviderID: provider.ID,
			Date:       slot,
		})
		if err != nil {
			return err
		}

		if _, err := tx.CreateNotification(ctx, domain.Notification{UserID: provider.ID, Content: content}); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		created = a
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			return domain.Appointment{}, ErrSlotTaken
		}
		return domain.Appointment{}, err
	}

	created.Provider = &provider
	created.User = &client

	s.log.Info(
		"appointment created",
		slog.Int64("appointment_id", created.ID),
		slog.Int64("user_id", created.UserID),
		slog.Int64("provider_id", created.ProviderID),
		slog.Time("date", created.Date),
	)
	return created, nil
}

// Cancel soft-cancels the appointment and queues the provider's mail. A
// failure to queue the mail does not undo the cancellation.
func (s *Service) Cancel(ctx context.Context, appointmentID, userID int64) (domain.Appointment, error) {
	if appointmentID <= 0 {
		return domain.Appointment{}, service.Validation("appointment id is required")
	}

	appt, err := s.appts.FindActive(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, ErrNotFound
		}
		return domain.Appointment{}, err
	}
	if appt.UserID != userID {
		return domain.Appointment{}, ErrForbidden
	}

	now := s.now()
	if !appt.Cancelable(now) {
		return domain.Appointment{}, ErrCancellationWindow
	}

	canceled, err := s.appts.Cancel(ctx, appt, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, ErrNotFound
		}
		return domain.Appointment{}, err
	}

	s.log.Info("appointment canceled", slog.Int64("appointment_id", canceled.ID), slog.Int64("user_id", userID))
	s.enqueueCancellationMail(ctx, canceled)
	return canceled, nil
}

func (s *Service) enqueueCancellationMail(ctx context.Context, a domain.Appointment) {
	payload := jobs.CancellationMail{AppointmentID: a.ID, Date: a.Date}
	if a.Provider != nil {
		payload.ProviderName = a.Provider.Name
		payload.ProviderEmail = a.Provider.Email
	}
	if a.User != nil {
		payload.ClientName = a.User.Name
	}

	// The request context may be canceled once the response is written.
	if err := s.jobs.Enqueue(context.WithoutCancel(ctx), jobs.KindCancellationMail, payload); err != nil {
		s.log.Warn(
			"cancellation mail enqueue failed",
			slog.Any("err", err),
			slog.Int64("appointment_id", a.ID),
		)
	}
}

// List returns one page of the user's active appointments, soonest first.
func (s *Service) List(ctx context.Context, userID int64, page int) ([]domain.Appointment, error) {
	if userID <= 0 {
		return nil, service.Validation("user is required")
	}
	if page < 1 {
		page = 1
	}
	// Offsets past int32 cannot be expressed by the store; nothing lives there.
	if page-1 > math.MaxInt32/store.PageSize {
		return []domain.Appointment{}, nil
	}

	rows, err := s.appts.ListByUser(ctx, userID, store.PageSize, (page-1)*store.PageSize)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Appointment, 0, len(rows))
	for _, a := range rows {
		if a.Canceled() {
			continue
		}
		out = append(out, a)
		if len(out) == store.PageSize {
			break
		}
	}
	return out, nil
}

// Schedule lists the provider's active appointments on the day of date.
func (s *Service) Schedule(ctx context.Context, providerID int64, date string) ([]domain.Appointment, error) {
	if err := s.requireProvider(ctx, providerID); err != nil {
		return nil, err
	}

	day := s.now()
	if date != "" {
		t, ok := ParseDate(date, s.loc)
		if !ok {
			return nil, service.Validation("date must be an ISO-8601 timestamp")
		}
		day = t
	}

	start, end := domain.DayBounds(day, s.loc)
	return s.appts.ListByProvider(ctx, providerID, start, end)
}

// Available reports which business-hour slots of the provider are still free
// on the day containing the given unix-millisecond instant.
func (s *Service) Available(ctx context.Context, providerID int64, dateMillis int64) ([]domain.AvailableSlot, error) {
	if providerID <= 0 {
		return nil, service.Validation("providerId is required")
	}
	if dateMillis <= 0 {
		return nil, service.Validation("invalid date")
	}
	if err := s.requireProvider(ctx, providerID); err != nil {
		return nil, err
	}

	day := time.UnixMilli(dateMillis)
	start, end := domain.DayBounds(day, s.loc)
	rows, err := s.appts.ListByProvider(ctx, providerID, start, end)
	if err != nil {
		return nil, err
	}

	booked := make([]time.Time, 0, len(rows))
	for _, a := range rows {
		booked = append(booked, a.Date)
	}
	return domain.Availability(day, s.loc, s.now(), booked)
}

func (s *Service) requireProvider(ctx context.Context, userID int64) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotAProvider
		}
		return err
	}
	if !u.Provider {
		return ErrNotAProvider
	}
	return nil
}
