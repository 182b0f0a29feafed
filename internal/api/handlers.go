package api

import (
	"net/http"

	"meditrack/internal/appointments"
	"meditrack/internal/auth"
	"meditrack/internal/chatbot"
	"meditrack/internal/medicines"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func registerHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		u, err := svc.Register(r.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func loginHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		token, u, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": u})
	}
}

func chatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		writeJSON(w, http.StatusOK, chatbot.Respond(req.Message))
	}
}

func listMedicinesHandler(svc *medicines.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		list, err := svc.List(r.Context(), userID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createMedicineHandler(svc *medicines.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		var in medicines.CreateInput
		if err := decode(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "No data")
			return
		}
		m, err := svc.Create(r.Context(), userID, in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"message": "Medicine added", "id": m.ID})
	}
}

func deleteMedicineHandler(svc *medicines.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := svc.Delete(r.Context(), userID, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Deleted"})
	}
}

func logDoseHandler(svc *medicines.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var req struct {
			ScheduledDatetime string `json:"scheduled_datetime"`
			Taken             *bool  `json:"taken"`
		}
		// An empty body is allowed: the dose is logged as taken now.
		_ = decode(r, &req)

		pct, err := svc.LogDose(r.Context(), userID, id, req.ScheduledDatetime, req.Taken)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Dose logged", "adherence": pct})
	}
}

func adherenceHandler(svc *medicines.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		pct, err := svc.Adherence(r.Context(), userID, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"medicine_id": id, "adherence": pct})
	}
}

func listAppointmentsHandler(svc *appointments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		if r.URL.Query().Get("split") != "" {
			upcoming, past, err := svc.Split(r.Context(), userID)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"upcoming": upcoming, "past": past})
			return
		}
		list, err := svc.List(r.Context(), userID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func bookAppointmentHandler(svc *appointments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		var req struct {
			Title       string `json:"title"`
			Datetime    string `json:"datetime"`
			Description string `json:"description"`
		}
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		a, err := svc.Book(r.Context(), userID, req.Title, req.Description, req.Datetime)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"message": "Appointment booked", "id": a.ID})
	}
}

func deleteAppointmentHandler(svc *appointments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := svc.Delete(r.Context(), userID, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Deleted"})
	}
}

// linkTelegramHandler links the caller's account to a Telegram chat. A null
// chat_id unlinks it.
func linkTelegramHandler(users TelegramLinker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		var req struct {
			ChatID *int64 `json:"chat_id"`
		}
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := users.SetTelegramChat(r.Context(), userID, req.ChatID); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"telegram_chat_id": req.ChatID})
	}
}

