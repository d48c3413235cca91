package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Notification struct {
	bun.BaseModel `bun:"table:notifications"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"user_id"`
	Content   string    `bun:"content,notnull" json:"content"`
	Read      bool      `bun:"read,notnull" json:"read"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

func (n *Notification) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if n.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		n.ID = id
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return nil
}
