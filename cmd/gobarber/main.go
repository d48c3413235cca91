// Command gobarber is a small client for the gobarber HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"gobarber/backend/internal/client"
)

const usage = `usage: gobarber [flags] <command> [args]

commands:
  signin <email> <password>     sign in as a provider and print the token
  appointments [page]           list your appointments
  book <providerId> <date>      book the hour containing date (RFC 3339)
  cancel <appointmentId>        cancel one of your appointments
  notifications                 list your notifications

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "gobarber:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("gobarber", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.StringP("server", "s", envOr("GOBARBER_SERVER", "http://localhost:3333"), "API base URL")
	token := fs.StringP("token", "t", os.Getenv("GOBARBER_TOKEN"), "bearer token from signin")
	timeout := fs.Duration("timeout", 15*time.Second, "request timeout")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := client.New(*server, nil)
	if *token != "" {
		c.Resume(*token)
	}

	cmd, rest := rest[0], rest[1:]
	switch cmd {
	case "signin":
		if len(rest) != 2 {
			return errors.New("signin needs <email> <password>")
		}
		route, err := c.SignIn(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		u, _ := c.User()
		return printJSON(stdout, map[string]any{"token": c.Token(), "user": u, "route": route})

	case "appointments":
		page := 1
		if len(rest) > 0 {
			p, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("page must be a number: %w", err)
			}
			page = p
		}
		out, err := c.Appointments(ctx, page)
		if err != nil {
			return err
		}
		return printJSON(stdout, out)

	case "book":
		if len(rest) != 2 {
			return errors.New("book needs <providerId> <date>")
		}
		providerID, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("providerId must be a number: %w", err)
		}
		date, err := time.Parse(time.RFC3339, rest[1])
		if err != nil {
			return fmt.Errorf("date must be RFC 3339: %w", err)
		}
		out, err := c.Book(ctx, providerID, date)
		if err != nil {
			return err
		}
		return printJSON(stdout, out)

	case "cancel":
		if len(rest) != 1 {
			return errors.New("cancel needs <appointmentId>")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("appointmentId must be a number: %w", err)
		}
		out, err := c.Cancel(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(stdout, out)

	case "notifications":
		out, err := c.Notifications(ctx)
		if err != nil {
			return err
		}
		return printJSON(stdout, out)

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
