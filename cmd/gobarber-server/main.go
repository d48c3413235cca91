package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"gobarber/backend/internal/auth"
	"gobarber/backend/internal/config"
	"gobarber/backend/internal/datefmt"
	"gobarber/backend/internal/jobs"
	"gobarber/backend/internal/mail"
	"gobarber/backend/internal/service/appointments"
	"gobarber/backend/internal/service/notifications"
	"gobarber/backend/internal/service/sessions"
	"gobarber/backend/internal/service/users"
	"gobarber/backend/internal/store/cache"
	"gobarber/backend/internal/store/postgres"
	grpcTransport "gobarber/backend/internal/transport/grpc"
	"gobarber/backend/internal/transport/rest"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "gobarber-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "gobarber-server"),
	)
	slog.SetDefault(log)

	log.Info(
		"starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("jobs_backend", string(cfg.JobsBackend)),
		slog.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	if cfg.DBMigrate {
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			log.Error("database migration failed", slog.Any("err", err))
			os.Exit(1)
		}
		log.Info("database migrated", slog.Any("applied", applied))
	}

	loc := cfg.Location()
	dates, err := datefmt.New(cfg.Locale, loc)
	if err != nil {
		log.Error("date formatter init failed", slog.Any("err", err), slog.String("locale", cfg.Locale))
		os.Exit(1)
	}

	userRepo, err := cache.NewUsers(postgres.NewUserRepo(db), cfg.UsersCacheSize, log)
	if err != nil {
		log.Error("user cache init failed", slog.Any("err", err))
		os.Exit(1)
	}
	apptRepo := postgres.NewAppointmentRepo(db)
	notificationRepo := postgres.NewNotificationRepo(db)

	mailer, err := mail.New(mail.NewDialer(mail.Config{
		Host: cfg.MailHost,
		Port: cfg.MailPort,
		User: cfg.MailUser,
		Pass: cfg.MailPass,
		From: cfg.MailFrom,
	}), cfg.MailFrom, log)
	if err != nil {
		log.Error("mailer init failed", slog.Any("err", err))
		os.Exit(1)
	}

	jobRouter := jobs.NewRouter(log)
	cancellationMail, err := jobs.NewCancellationMailHandler(mailer, dates, 0, log)
	if err != nil {
		log.Error("job handler init failed", slog.Any("err", err))
		os.Exit(1)
	}
	jobRouter.Handle(jobs.KindCancellationMail, cancellationMail)
	log.Info("job handlers registered", slog.Any("kinds", jobRouter.Kinds()), slog.String("locale", dates.Locale()))

	dispatcher, closeJobs, err := startJobs(ctx, cfg, jobRouter, log)
	if err != nil {
		log.Error("job backend init failed", slog.Any("err", err), slog.String("jobs_backend", string(cfg.JobsBackend)))
		os.Exit(1)
	}
	defer closeJobs()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	apptSvc := appointments.NewService(appointments.Deps{
		Users:        userRepo,
		Appointments: apptRepo,
		Jobs:         dispatcher,
		Dates:        dates,
		Location:     loc,
		Log:          log,
	})

	gin.SetMode(gin.ReleaseMode)
	handler := rest.NewRouter(rest.Deps{
		Appointments:   apptSvc,
		Users:          users.NewService(userRepo, log),
		Sessions:       sessions.NewService(userRepo, tokens, log),
		Notifications:  notifications.NewService(userRepo, notificationRepo),
		Tokens:         tokens,
		DB:             postgres.NewPinger(db),
		LoginLimiter:   rest.NewRateLimiter(cfg.LoginRPS, cfg.LoginBurst),
		RequestTimeout: cfg.HTTPRequestTimeout,
		Log:            log,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	health := grpcTransport.NewHealth(postgres.NewPinger(db), log)
	go health.Run(ctx, 15*time.Second)
	grpcServer := grpcTransport.NewServer(cfg.HTTPRequestTimeout, health)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("servers started", slog.String("http_addr", cfg.HTTPAddr), slog.String("grpc_addr", cfg.GRPCAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped with error", slog.Any("err", err))
		}
	}
	shutdown(log, httpServer, grpcServer, cfg.ShutdownTimeout)
}

// startJobs wires the dispatcher the services enqueue into and returns a
// close func that drains it.
func startJobs(ctx context.Context, cfg config.Config, router *jobs.Router, log *slog.Logger) (jobs.Dispatcher, func(), error) {
	switch cfg.JobsBackend {
	case config.JobsBackendRabbitMQ:
		rc := jobs.RabbitConfig{
			URL:      cfg.RabbitURL,
			Exchange: cfg.RabbitExchange,
			Queue:    cfg.RabbitQueue,
			DLX:      cfg.RabbitDLX,
			Prefetch: cfg.RabbitPrefetch,

			PublishTimeout: cfg.RabbitPublishTimeout,
		}
		pub, err := jobs.NewPublisher(rc)
		if err != nil {
			return nil, nil, err
		}
		consumer := jobs.NewConsumer(rc, router, log)
		if err := consumer.Connect(); err != nil {
			_ = pub.Close()
			return nil, nil, err
		}
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error("job consumer stopped", slog.Any("err", err))
			}
		}()
		return pub, func() {
			consumer.Close()
			if err := pub.Close(); err != nil {
				log.Warn("job publisher close failed", slog.Any("err", err))
			}
		}, nil
	default:
		pool := jobs.NewPool(router, jobs.PoolConfig{
			Workers:   cfg.JobsWorkers,
			QueueSize: cfg.JobsQueueSize,
		}, log)
		return pool, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := pool.Close(ctx); err != nil {
				log.Warn("job pool drain incomplete", slog.Any("err", err))
			}
		}, nil
	}
}

func shutdown(log *slog.Logger, hs *http.Server, gs *grpc.Server, timeout time.Duration) {
	log.Info("shutting down servers", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := hs.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	}

	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("servers stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		gs.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
