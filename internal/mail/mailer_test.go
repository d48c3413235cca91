package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"strings"
	"testing"

	gomail "gopkg.in/mail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestMailer_SendRendersTemplateAndDefaultsFrom(t *testing.T) {
	sender := &fakeSender{}
	m, err := New(sender, "GoBarber Team <noreply@gobarber.com>", nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	err = m.Send(context.Background(), Message{
		To:       "ana@example.com",
		ToName:   "Ana",
		Subject:  "Appointment Canceled",
		Template: "cancellation",
		Data: map[string]string{
			"ProviderName": "Ana",
			"ClientName":   "Bruno",
			"Date":         "June 1, at 15:00",
		},
	})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}

	msg := sender.sent[0]
	if got := msg.GetHeader("From"); len(got) != 1 || !strings.Contains(got[0], "noreply@gobarber.com") {
		t.Fatalf("From = %v, want default sender", got)
	}
	if got := msg.GetHeader("Subject"); len(got) != 1 || got[0] != "Appointment Canceled" {
		t.Fatalf("Subject = %v", got)
	}

	var raw bytes.Buffer
	if _, err := msg.WriteTo(&raw); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	for _, want := range []string{"Ana", "Bruno", "June 1, at 15:00"} {
		if !strings.Contains(raw.String(), want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestMailer_SendErrors(t *testing.T) {
	t.Run("missing recipient", func(t *testing.T) {
		m, _ := New(&fakeSender{}, "from@example.com", nil)
		if err := m.Send(context.Background(), Message{Template: "cancellation"}); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unknown template", func(t *testing.T) {
		m, _ := New(&fakeSender{}, "from@example.com", nil)
		if err := m.Send(context.Background(), Message{To: "a@example.com", Template: "nope"}); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("transport failure is wrapped", func(t *testing.T) {
		boom := errors.New("smtp down")
		m, _ := New(&fakeSender{err: boom}, "from@example.com", nil)
		err := m.Send(context.Background(), Message{To: "a@example.com", Template: "cancellation", Data: map[string]string{}})
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want wrapped %v", err, boom)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		m, _ := New(&fakeSender{}, "from@example.com", nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := m.Send(ctx, Message{To: "a@example.com", Template: "cancellation"}); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want %v", err, context.Canceled)
		}
	})
}

// smtpRecorder runs messages through gomail's real send path, which parses
// every address header, and records the envelope.
type smtpRecorder struct {
	to  []string
	raw string
}

func (r *smtpRecorder) DialAndSend(m ...*gomail.Message) error {
	return gomail.Send(gomail.SendFunc(func(from string, to []string, msg io.WriterTo) error {
		var b bytes.Buffer
		if _, err := msg.WriteTo(&b); err != nil {
			return err
		}
		r.to = append(r.to, to...)
		r.raw = b.String()
		return nil
	}), m...)
}

func TestMailer_SendEncodesDisplayNames(t *testing.T) {
	names := []string{"Ana", "João", "Zoë Müller", "Souza, Ana"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			rec := &smtpRecorder{}
			m, err := New(rec, "GoBarber Team <noreply@gobarber.com>", nil)
			if err != nil {
				t.Fatalf("New error: %v", err)
			}

			err = m.Send(context.Background(), Message{
				To:       "provider@example.com",
				ToName:   name,
				Subject:  "Appointment Canceled",
				Template: "cancellation",
				Data:     map[string]string{"ProviderName": name},
			})
			if err != nil {
				t.Fatalf("Send error: %v", err)
			}
			if len(rec.to) != 1 || rec.to[0] != "provider@example.com" {
				t.Fatalf("envelope to = %v", rec.to)
			}

			var toHeader string
			for _, line := range strings.Split(rec.raw, "\r\n") {
				if strings.HasPrefix(line, "To: ") {
					toHeader = strings.TrimPrefix(line, "To: ")
					break
				}
			}
			decoded, err := new(mime.WordDecoder).DecodeHeader(toHeader)
			if err != nil {
				t.Fatalf("decode To %q: %v", toHeader, err)
			}
			if !strings.Contains(decoded, name) || !strings.Contains(decoded, "<provider@example.com>") {
				t.Fatalf("To header = %q (decoded %q)", toHeader, decoded)
			}
		})
	}
}
