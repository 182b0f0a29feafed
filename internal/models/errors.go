package models

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrAppointmentConflict = errors.New("overlapping appointment")
	ErrForbidden           = errors.New("forbidden")
)
