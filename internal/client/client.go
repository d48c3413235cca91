package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DashboardRoute is where a signed-in provider lands.
const DashboardRoute = "/dashboard"

var (
	ErrNotProvider      = errors.New("user is not a provider")
	ErrNotAuthenticated = errors.New("not signed in")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

type User struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Provider bool    `json:"provider"`
	Avatar   *string `json:"avatar"`
}

type Person struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

type Appointment struct {
	ID         int64      `json:"id"`
	Date       time.Time  `json:"date"`
	Past       bool       `json:"past"`
	Cancelable bool       `json:"cancelable"`
	CanceledAt *time.Time `json:"canceled_at"`
	Provider   *Person    `json:"provider"`
	User       *Person    `json:"user"`
}

type Notification struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Client talks to the HTTP API and holds the session once SignIn succeeds.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
	user  *User
}

func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

// SignIn exchanges credentials for a session and returns the route to show
// next. Any failure leaves the client signed out. There is no retry.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	c.SignOut()

	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/sessions", "", body, &out); err != nil {
		return "", err
	}
	if !out.User.Provider {
		return "", ErrNotProvider
	}
	if out.Token == "" {
		return "", errors.New("server returned an empty token")
	}

	c.mu.Lock()
	c.token = out.Token
	c.user = &out.User
	c.mu.Unlock()
	return DashboardRoute, nil
}

// Resume restores a session from a previously issued token.
func (c *Client) Resume(token string) {
	c.mu.Lock()
	c.token = token
	c.user = nil
	c.mu.Unlock()
}

func (c *Client) SignOut() {
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) User() (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return User{}, false
	}
	return *c.user, true
}

func (c *Client) Authenticated() bool {
	return c.Token() != ""
}

func (c *Client) Appointments(ctx context.Context, page int) ([]Appointment, error) {
	var out []Appointment
	err := c.authed(ctx, http.MethodGet, "/appointments?page="+strconv.Itoa(page), nil, &out)
	return out, err
}

func (c *Client) Book(ctx context.Context, providerID int64, date time.Time) (Appointment, error) {
	var out Appointment
	body := map[string]any{"providerId": providerID, "date": date.Format(time.RFC3339)}
	err := c.authed(ctx, http.MethodPost, "/appointments", body, &out)
	return out, err
}

func (c *Client) Cancel(ctx context.Context, appointmentID int64) (Appointment, error) {
	var out Appointment
	err := c.authed(ctx, http.MethodDelete, "/appointments/"+strconv.FormatInt(appointmentID, 10), nil, &out)
	return out, err
}

func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	err := c.authed(ctx, http.MethodGet, "/notifications", nil, &out)
	return out, err
}

func (c *Client) authed(ctx context.Context, method, path string, in, out any) error {
	token := c.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	return c.do(ctx, method, path, token, in, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
