package messages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meditrack/internal/models"
)

func TestRender(t *testing.T) {
	subject, body, err := Render(Reminder{
		User:     models.User{Name: "Ann"},
		Medicine: models.Medicine{Name: "Metformin", Dose: "500mg"},
		At:       time.Date(2025, time.March, 1, 21, 5, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "MyMeds Reminder: Metformin at 21:05", subject)
	assert.Equal(t, "Hello Ann,\n\nIt's time to take your Metformin (500mg).\n\nPlease log it in your dashboard.", body)
}

func TestRender_NoEscaping(t *testing.T) {
	subject, body, err := Render(Reminder{
		User:     models.User{Name: "O'Brien"},
		Medicine: models.Medicine{Name: "A&B <forte>", Dose: "1 tab"},
		At:       time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "A&B <forte>")
	assert.Contains(t, body, "Hello O'Brien,")
}
