package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sosodev/duration"

	"meditrack/internal/logger"
)

var log = logger.New("config")

// secretsDir holds Docker secrets; a file there wins over the environment.
var secretsDir = "/run/secrets"

const maxLookahead = 24 * time.Hour

type Config struct {
	DatabaseURL string
	HTTPAddr    string

	JWTSecret string
	JWTTTL    time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	TelegramToken string

	SchedulerEnabled    bool
	ReminderInterval    time.Duration
	ReminderLookahead   time.Duration
	ReminderMaxAttempts int
	NotifyTimeout       time.Duration
}

// Load reads .env (if present), Docker secrets and the environment. Unset
// values fall back to defaults; every malformed value is reported at once.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:         "file:meditrack.db?_pragma=foreign_keys(1)",
		HTTPAddr:            ":8080",
		JWTSecret:           "dev-key-please-change",
		JWTTTL:              24 * time.Hour,
		SMTPPort:            587,
		SchedulerEnabled:    true,
		ReminderInterval:    time.Minute,
		ReminderLookahead:   maxLookahead,
		ReminderMaxAttempts: 3,
		NotifyTimeout:       15 * time.Second,
	}
	var invalid []string

	if v := lookup("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := lookup("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := secret("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if !positiveDuration("JWT_TTL", &cfg.JWTTTL) {
		invalid = append(invalid, "JWT_TTL")
	}

	cfg.SMTPHost = lookup("SMTP_HOST")
	cfg.SMTPUser = lookup("SMTP_USER")
	cfg.SMTPPass = secret("SMTP_PASS")
	cfg.SMTPFrom = lookup("SMTP_FROM")
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUser
	}
	if v := lookup("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "SMTP_PORT")
		} else {
			cfg.SMTPPort = port
		}
	}

	cfg.TelegramToken = secret("TELEGRAM_BOT_TOKEN")

	if v := lookup("SCHEDULER_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_ENABLED")
		} else {
			cfg.SchedulerEnabled = enabled
		}
	}
	if !positiveDuration("REMINDER_INTERVAL", &cfg.ReminderInterval) {
		invalid = append(invalid, "REMINDER_INTERVAL")
	}
	if !positiveDuration("NOTIFY_TIMEOUT", &cfg.NotifyTimeout) {
		invalid = append(invalid, "NOTIFY_TIMEOUT")
	}
	if v := lookup("REMINDER_LOOKAHEAD"); v != "" {
		d, err := parseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, "REMINDER_LOOKAHEAD")
		} else {
			if d > maxLookahead {
				log.Warn().Dur("requested", d).Dur("max", maxLookahead).Msg("lookahead capped")
				d = maxLookahead
			}
			cfg.ReminderLookahead = d
		}
	}
	if v := lookup("REMINDER_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			invalid = append(invalid, "REMINDER_MAX_ATTEMPTS")
		} else {
			cfg.ReminderMaxAttempts = n
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// secret prefers /run/secrets/<lowercase key> and falls back to the
// environment.
func secret(key string) string {
	if data, err := os.ReadFile(filepath.Join(secretsDir, strings.ToLower(key))); err == nil {
		if v := strings.TrimSpace(string(data)); v != "" {
			return v
		}
	}
	return lookup(key)
}

func positiveDuration(key string, dst *time.Duration) bool {
	v := lookup(key)
	if v == "" {
		return true
	}
	d, err := parseDuration(v)
	if err != nil || d <= 0 {
		return false
	}
	*dst = d
	return true
}

// parseDuration accepts Go durations ("90m") and ISO 8601 ones ("PT1H30M").
func parseDuration(v string) (time.Duration, error) {
	if strings.HasPrefix(strings.ToUpper(v), "P") {
		d, err := duration.Parse(strings.ToUpper(v))
		if err != nil {
			return 0, err
		}
		return d.ToTimeDuration(), nil
	}
	return time.ParseDuration(v)
}
