package postgres

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/store"
)

const slotIndex = "appointments_provider_slot_active"

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type bookingTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) FindActive(ctx context.Context, id int64) (domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.NewSelect().
		Model(&a).
		Relation("User").
		Relation("Provider").
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.canceled_at IS NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Appointment{}, notFound(err)
	}
	return a, nil
}

func (r *AppointmentRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Appointment, error) {
	// bun renders OFFSET from an int32.
	if offset < 0 || offset > math.MaxInt32 {
		return []domain.Appointment{}, nil
	}
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Provider").
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.canceled_at IS NULL").
		OrderExpr("?TableAlias.date ASC, ?TableAlias.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) ListByProvider(ctx context.Context, providerID int64, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Relation("User").
		Where("?TableAlias.provider_id = ?", providerID).
		Where("?TableAlias.canceled_at IS NULL").
		Where("?TableAlias.date >= ?", windowStart).
		Where("?TableAlias.date < ?", windowEnd).
		OrderExpr("?TableAlias.date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) Cancel(ctx context.Context, appt domain.Appointment, at time.Time) (domain.Appointment, error) {
	at = at.UTC()
	m := domain.Appointment{ID: appt.ID, CanceledAt: &at}

	res, err := r.db.NewUpdate().
		Model(&m).
		Column("canceled_at", "updated_at").
		WherePK().
		Where("canceled_at IS NULL").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}

	appt.CanceledAt = m.CanceledAt
	appt.UpdatedAt = m.UpdatedAt
	return appt, nil
}

func (r *AppointmentRepo) InProviderTransaction(ctx context.Context, providerID int64, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProviderSlots(ctx, tx, providerID); err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx})
	})
}

func lockProviderSlots(ctx context.Context, tx bun.Tx, providerID int64) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", providerLockKey(providerID)).Exec(ctx)
	return err
}

func providerLockKey(providerID int64) string {
	return "provider:" + strconv.FormatInt(providerID, 10)
}

func (b bookingTx) FindActiveAt(ctx context.Context, providerID int64, date time.Time) (domain.Appointment, error) {
	var a domain.Appointment
	err := b.tx.NewSelect().
		Model(&a).
		Where("provider_id = ?", providerID).
		Where("date = ?", date.UTC()).
		Where("canceled_at IS NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Appointment{}, notFound(err)
	}
	return a, nil
}

func (b bookingTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		UserID:     appt.UserID,
		ProviderID: appt.ProviderID,
		Date:       appt.Date.UTC(),
	}

	_, err := b.tx.NewInsert().Model(&m).Returning("*").Exec(ctx)
	if err != nil {
		if isUniqueViolation(err, slotIndex) {
			return domain.Appointment{}, store.ErrSlotTaken
		}
		return domain.Appointment{}, err
	}
	return m, nil
}

func (b bookingTx) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	return insertNotification(ctx, b.tx, n)
}
