package messages

import (
	"bytes"
	"text/template"
	"time"

	"meditrack/internal/models"
)

var (
	subjectTmpl = template.Must(template.New("subject").Parse(
		`MyMeds Reminder: {{.Medicine.Name}} at {{.At.Format "15:04"}}`))

	bodyTmpl = template.Must(template.New("body").Parse(
		"Hello {{.User.Name}},\n\n" +
			"It's time to take your {{.Medicine.Name}} ({{.Medicine.Dose}}).\n\n" +
			"Please log it in your dashboard."))
)

type Reminder struct {
	User     models.User
	Medicine models.Medicine
	At       time.Time
}

// Render returns the subject and body of a dose reminder.
func Render(r Reminder) (subject, body string, err error) {
	var s, b bytes.Buffer
	if err := subjectTmpl.Execute(&s, r); err != nil {
		return "", "", err
	}
	if err := bodyTmpl.Execute(&b, r); err != nil {
		return "", "", err
	}
	return s.String(), b.String(), nil
}
