package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Role selects which front end barberq boots into.
type Role string

const (
	// RoleClient shows the queue-position view for one booked client.
	RoleClient Role = "client"
	// RoleBarber shows the queue board and service session timer.
	RoleBarber Role = "barber"
)

// Config captures everything barberq needs to talk to the queue backend.
type Config struct {
	APIBind  string
	Role     Role
	SalonID  string
	BarberID string
	ClientID string

	// Poll cadences; zero values are replaced with defaults at load time.
	BookingPoll       time.Duration
	NotificationsPoll time.Duration
	QueuePoll         time.Duration
}

const (
	defaultConfigPath        = "~/.config/barberq/config.toml"
	defaultAPIBind           = "127.0.0.1:8743"
	defaultBookingPoll       = 10 * time.Second
	defaultNotificationsPoll = 30 * time.Second
	defaultQueuePoll         = 10 * time.Second
)

// Load locates and parses the barberq config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind  string `toml:"api_bind"`
		Role     string `toml:"role"`
		SalonID  string `toml:"salon_id"`
		BarberID string `toml:"barber_id"`
		ClientID string `toml:"client_id"`
		Poll     struct {
			BookingSeconds       int `toml:"booking_seconds"`
			NotificationsSeconds int `toml:"notifications_seconds"`
			QueueSeconds         int `toml:"queue_seconds"`
		} `toml:"poll"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if bind := strings.TrimSpace(raw.APIBind); bind != "" {
		cfg.APIBind = bind
	}
	if strings.TrimSpace(raw.Role) != "" {
		role, err := ParseRole(raw.Role)
		if err != nil {
			return Config{}, err
		}
		cfg.Role = role
	}
	cfg.SalonID = strings.TrimSpace(raw.SalonID)
	cfg.BarberID = strings.TrimSpace(raw.BarberID)
	cfg.ClientID = strings.TrimSpace(raw.ClientID)

	if s := raw.Poll.BookingSeconds; s > 0 {
		cfg.BookingPoll = time.Duration(s) * time.Second
	}
	if s := raw.Poll.NotificationsSeconds; s > 0 {
		cfg.NotificationsPoll = time.Duration(s) * time.Second
	}
	if s := raw.Poll.QueueSeconds; s > 0 {
		cfg.QueuePoll = time.Duration(s) * time.Second
	}

	return cfg, nil
}

// ParseRole validates a role string from config or flags.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "client":
		return RoleClient, nil
	case "barber", "barbier":
		return RoleBarber, nil
	default:
		return "", fmt.Errorf("unknown role %q (want client or barber)", value)
	}
}

func defaults() Config {
	return Config{
		APIBind:           defaultAPIBind,
		Role:              RoleClient,
		BookingPoll:       defaultBookingPoll,
		NotificationsPoll: defaultNotificationsPoll,
		QueuePoll:         defaultQueuePoll,
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
