package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"gobarber/backend/internal/mail"
)

const KindCancellationMail Kind = "cancellation_mail"

// CancellationMail is a snapshot of the canceled appointment taken when the
// cancellation committed.
type CancellationMail struct {
	AppointmentID int64     `json:"appointment_id"`
	Date          time.Time `json:"date"`
	ProviderName  string    `json:"provider_name"`
	ProviderEmail string    `json:"provider_email"`
	ClientName    string    `json:"client_name"`
}

type MailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

type DateFormatter interface {
	Format(t time.Time) string
}

// NewCancellationMailHandler sends the "Appointment Canceled" mail to the
// provider. Job ids already delivered are skipped.
func NewCancellationMailHandler(sender MailSender, dates DateFormatter, dedupSize int, log *slog.Logger) (Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if dedupSize <= 0 {
		dedupSize = 4096
	}
	seen, err := lru.New[uuid.UUID, struct{}](dedupSize)
	if err != nil {
		return nil, err
	}
	log = log.With(slog.String("component", "jobs.cancellation_mail"))

	return func(ctx context.Context, job Job) error {
		if seen.Contains(job.ID) {
			log.Info("duplicate job skipped", slog.String("job_id", job.ID.String()))
			return nil
		}

		var p CancellationMail
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}

		err := sender.Send(ctx, mail.Message{
			To:       p.ProviderEmail,
			ToName:   p.ProviderName,
			Subject:  "Appointment Canceled",
			Template: "cancellation",
			Data: map[string]string{
				"ProviderName": p.ProviderName,
				"ClientName":   p.ClientName,
				"Date":         dates.Format(p.Date),
			},
		})
		if err != nil {
			return err
		}

		seen.Add(job.ID, struct{}{})
		log.Info("cancellation mail sent", slog.Int64("appointment_id", p.AppointmentID))
		return nil
	}, nil
}
