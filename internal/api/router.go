// Package api serves the JSON HTTP API.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"meditrack/internal/appointments"
	"meditrack/internal/auth"
	"meditrack/internal/logger"
	"meditrack/internal/medicines"
)

var log = logger.New("api")

type TelegramLinker interface {
	SetTelegramChat(ctx context.Context, userID int64, chatID *int64) error
}

type Options struct {
	Auth         *auth.Service
	Medicines    *medicines.Service
	Appointments *appointments.Service
	Users        TelegramLinker
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", registerHandler(opts.Auth))
		r.Post("/login", loginHandler(opts.Auth))
		r.Post("/chat", chatHandler())

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(opts.Auth))

			r.Route("/medicines", func(r chi.Router) {
				r.Get("/", listMedicinesHandler(opts.Medicines))
				r.Post("/", createMedicineHandler(opts.Medicines))
				r.Delete("/{id}", deleteMedicineHandler(opts.Medicines))
				r.Post("/{id}/log", logDoseHandler(opts.Medicines))
				r.Get("/{id}/adherence", adherenceHandler(opts.Medicines))
			})

			r.Route("/appointments", func(r chi.Router) {
				r.Get("/", listAppointmentsHandler(opts.Appointments))
				r.Post("/", bookAppointmentHandler(opts.Appointments))
				r.Delete("/{id}", deleteAppointmentHandler(opts.Appointments))
			})

			r.Put("/me/telegram", linkTelegramHandler(opts.Users))
		})
	})

	return r
}
