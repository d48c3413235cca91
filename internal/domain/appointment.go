package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// CancellationWindow is how long before the slot a client may still cancel.
const CancellationWindow = 2 * time.Hour

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID         int64      `bun:"id,pk,autoincrement"`
	UserID     int64      `bun:"user_id,notnull"`
	ProviderID int64      `bun:"provider_id,notnull"`
	Date       time.Time  `bun:"date,notnull"`
	CanceledAt *time.Time `bun:"canceled_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull"`

	User     *User `bun:"rel:belongs-to,join:user_id=id"`
	Provider *User `bun:"rel:belongs-to,join:provider_id=id"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

func (a Appointment) Canceled() bool {
	return a.CanceledAt != nil
}

// Past reports whether the slot has already started at now.
func (a Appointment) Past(now time.Time) bool {
	return a.Date.Before(now)
}

// Cancelable reports whether now is at least CancellationWindow ahead of the
// slot.
func (a Appointment) Cancelable(now time.Time) bool {
	return !a.Date.Add(-CancellationWindow).Before(now)
}

// SlotOf returns the start of the hour containing t on the wall clock of loc,
// in UTC. Zones with half-hour offsets get local whole hours.
func SlotOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, local.Hour(), 0, 0, 0, loc).UTC()
}
