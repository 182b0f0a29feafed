package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meditrack/internal/adherence"
	"meditrack/internal/api"
	"meditrack/internal/appointments"
	"meditrack/internal/auth"
	"meditrack/internal/config"
	"meditrack/internal/handlers"
	"meditrack/internal/logger"
	"meditrack/internal/medicines"
	"meditrack/internal/notify"
	"meditrack/internal/reminders"
	"meditrack/internal/scheduler"
	"meditrack/internal/storage"
	"meditrack/internal/utils"
)

var log = logger.New("main")

func main() {
	cfg, err := config.Load()
	utils.Must(err, "load config")

	db, err := storage.New(cfg.DatabaseURL)
	utils.Must(err, "open database")

	n, err := db.Migrate()
	utils.Must(err, "migrate")
	log.Info().Int("applied", n).Msg("migrations done")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	calc := adherence.New(db.Medicines, db.DoseLogs, nil)
	meds := medicines.New(db.Medicines, db.DoseLogs, calc, nil)
	authSvc := auth.NewService(db.Users, cfg.JWTSecret, cfg.JWTTTL, nil)
	appts := appointments.New(db.Appointments, nil)

	email := notify.NewEmail(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		Timeout:  cfg.NotifyTimeout,
	})

	var (
		bot      *tgbotapi.BotAPI
		telegram notify.Channel
	)
	if cfg.TelegramToken != "" {
		sender, err := notify.NewBot(cfg.TelegramToken, "", cfg.NotifyTimeout)
		utils.Must(err, "connect telegram bot")
		log.Info().Str("bot", sender.Self.UserName).Msg("telegram bot authorized")
		telegram = notify.NewTelegram(sender)

		// long polls hold a request open for PollTimeout
		bot, err = notify.NewBot(cfg.TelegramToken, "", handlers.PollTimeout*time.Second+15*time.Second)
		utils.Must(err, "connect telegram bot")
	}

	notifier := notify.NewNotifier(email, telegram, cfg.NotifyTimeout)
	remind := reminders.New(db.Medicines, db.Users, db.Reminders, notifier, nil, reminders.Config{
		Lookahead:   cfg.ReminderLookahead,
		MaxAttempts: cfg.ReminderMaxAttempts,
	})

	var driver *scheduler.Driver
	if cfg.SchedulerEnabled {
		driver, err = scheduler.New(remind, cfg.ReminderInterval, nil)
		utils.Must(err, "create scheduler")
		utils.Must(driver.Start(ctx), "start scheduler")
	}

	if bot != nil {
		go handlers.NewHandler(bot, db.Users, meds).Listen(ctx)
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Options{
			Auth:         authSvc,
			Medicines:    meds,
			Appointments: appts,
			Users:        db.Users,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	closers := []utils.Closer{srv.Shutdown}
	if driver != nil {
		closers = append(closers, func(context.Context) error { return driver.Shutdown() })
	}
	closers = append(closers, func(context.Context) error { return db.Close() })

	if err := utils.Shutdown(time.Minute, closers...); err != nil {
		log.Error().Err(err).Msg("shutdown")
		os.Exit(1)
	}
}
