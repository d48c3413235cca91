package rest

import (
	"time"

	"gobarber/backend/internal/domain"
)

type userView struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Provider bool    `json:"provider"`
	Avatar   *string `json:"avatar"`
}

func toUserView(u domain.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Provider: u.Provider, Avatar: u.Avatar}
}

type sessionView struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type appointmentView struct {
	ID         int64               `json:"id"`
	Date       time.Time           `json:"date"`
	Past       bool                `json:"past"`
	Cancelable bool                `json:"cancelable"`
	CanceledAt *time.Time          `json:"canceled_at"`
	Provider   *domain.UserSummary `json:"provider,omitempty"`
	User       *domain.UserSummary `json:"user,omitempty"`
}

// publicSummary drops the email so listings only expose id, name and avatar.
func publicSummary(u *domain.User) *domain.UserSummary {
	if u == nil {
		return nil
	}
	s := u.Summary()
	s.Email = ""
	return &s
}

func toAppointmentView(a domain.Appointment, now time.Time) appointmentView {
	return appointmentView{
		ID:         a.ID,
		Date:       a.Date,
		Past:       a.Past(now),
		Cancelable: a.Cancelable(now),
		CanceledAt: a.CanceledAt,
		Provider:   publicSummary(a.Provider),
		User:       publicSummary(a.User),
	}
}

func toAppointmentViews(rows []domain.Appointment, now time.Time) []appointmentView {
	out := make([]appointmentView, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAppointmentView(a, now))
	}
	return out
}
