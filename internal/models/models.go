package models

import "time"

// User is an account that owns medicines and appointments.
type User struct {
	ID             int64     `db:"id"               json:"id"`
	Email          string    `db:"email"            json:"email"`
	PasswordHash   string    `db:"password_hash"    json:"-"`
	Name           string    `db:"name"             json:"name"`
	TelegramChatID *int64    `db:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `db:"created_at"       json:"created_at"`
}

// Medicine is a prescribed drug with a daily dosing schedule.
type Medicine struct {
	ID        int64      `db:"id"         json:"id"`
	UserID    int64      `db:"user_id"    json:"user_id"`
	Name      string     `db:"name"       json:"name"`
	Dose      string     `db:"dose"       json:"dose"`
	Times     string     `db:"times"      json:"-"`          // JSON array: ["09:00","21:00"]
	StartDate *time.Time `db:"start_date" json:"start_date"` // nil -> adherence is 0
	EndDate   *time.Time `db:"end_date"   json:"end_date"`   // nil -> ongoing
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// DoseLog records whether a scheduled dose was taken.
type DoseLog struct {
	ID                int64     `db:"id"                 json:"id"`
	MedicineID        int64     `db:"medicine_id"        json:"medicine_id"`
	ScheduledDatetime time.Time `db:"scheduled_datetime" json:"scheduled_datetime"`
	Taken             bool      `db:"taken"              json:"taken"`
	LoggedAt          time.Time `db:"logged_at"          json:"logged_at"`
}

// ReminderQueueEntry is one concrete reminder occurrence, unique per (MedicineID, SendAt).
type ReminderQueueEntry struct {
	ID         int64     `db:"id"          json:"id"`
	MedicineID int64     `db:"medicine_id" json:"medicine_id"`
	SendAt     time.Time `db:"send_at"     json:"send_at"`
	Sent       bool      `db:"sent"        json:"sent"`
	Attempts   int       `db:"attempts"    json:"attempts"`
}

// Appointment is a booked visit.
type Appointment struct {
	ID          int64             `db:"id"                   json:"id"`
	UserID      int64             `db:"user_id"              json:"user_id"`
	Title       string            `db:"title"                json:"title"`
	Description string            `db:"description"          json:"description"`
	Datetime    time.Time         `db:"appointment_datetime" json:"datetime"`
	Status      AppointmentStatus `db:"status"               json:"status"`
	CreatedAt   time.Time         `db:"created_at"           json:"created_at"`
}
