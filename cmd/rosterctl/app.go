package main

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"rostering_backend/internal/config"
	"rostering_backend/internal/database"
	"rostering_backend/internal/events"
	"rostering_backend/internal/repositories"
	"rostering_backend/internal/services"
	"rostering_backend/pkg/utils"
)

// app carries the services a command needs. It is built once per invocation.
type app struct {
	cfg        *config.Config
	db         *sql.DB
	publisher  events.Publisher
	auth       services.AuthService
	rosters    services.RosterService
	attendance services.AttendanceService
	reports    services.ReportService
	seeder     *services.SeedService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	utils.InitLogger(cfg.App.LogLevel, true)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Broker.URL != "" {
		if pub, err := events.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Exchange); err != nil {
			utils.LogWarn(err, "Event broker unavailable, domain events disabled")
		} else {
			publisher = pub
		}
	}

	tokens, err := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.Issuer)
	if err != nil {
		db.Close()
		return nil, err
	}

	userRepo := repositories.NewUserRepository()
	rosterRepo := repositories.NewRosterRepository()
	shiftRepo := repositories.NewShiftRepository()
	attendanceRepo := repositories.NewAttendanceRepository()
	reportRepo := repositories.NewReportRepository()

	return &app{
		cfg:        cfg,
		db:         db,
		publisher:  publisher,
		auth:       services.NewAuthService(userRepo, db, tokens, cfg.Auth.BcryptCost),
		rosters:    services.NewRosterService(rosterRepo, shiftRepo, userRepo, db, publisher),
		attendance: services.NewAttendanceService(attendanceRepo, shiftRepo, userRepo, db, publisher),
		reports:    services.NewReportService(rosterRepo, shiftRepo, attendanceRepo, userRepo, reportRepo, db, publisher),
		seeder:     services.NewSeedService(userRepo, rosterRepo, shiftRepo, attendanceRepo, db, cfg.Auth.BcryptCost),
	}, nil
}

func (a *app) Close() {
	if err := a.publisher.Close(); err != nil {
		utils.LogWarn(err, "Failed to close event publisher")
	}
	if err := a.db.Close(); err != nil {
		utils.LogWarn(err, "Failed to close database")
	}
}

// withApp wraps a command body so it runs against a freshly built app.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
