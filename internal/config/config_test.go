package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != defaultAPIBind {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, defaultAPIBind)
	}
	if cfg.Role != RoleClient {
		t.Fatalf("Role = %q, want %q", cfg.Role, RoleClient)
	}
	if cfg.BookingPoll != defaultBookingPoll {
		t.Fatalf("BookingPoll = %v, want %v", cfg.BookingPoll, defaultBookingPoll)
	}
	if cfg.NotificationsPoll != defaultNotificationsPoll {
		t.Fatalf("NotificationsPoll = %v, want %v", cfg.NotificationsPoll, defaultNotificationsPoll)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_bind = "  10.0.0.5:9999  "
role = "barbier"
salon_id = " salon-1 "
barber_id = "b-7"

[poll]
booking_seconds = 5
queue_seconds = 3
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != "10.0.0.5:9999" {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, "10.0.0.5:9999")
	}
	if cfg.Role != RoleBarber {
		t.Fatalf("Role = %q, want %q", cfg.Role, RoleBarber)
	}
	if cfg.SalonID != "salon-1" {
		t.Fatalf("SalonID = %q, want %q", cfg.SalonID, "salon-1")
	}
	if cfg.BookingPoll != 5*time.Second {
		t.Fatalf("BookingPoll = %v, want 5s", cfg.BookingPoll)
	}
	if cfg.QueuePoll != 3*time.Second {
		t.Fatalf("QueuePoll = %v, want 3s", cfg.QueuePoll)
	}
	// Unset cadence keeps its default.
	if cfg.NotificationsPoll != defaultNotificationsPoll {
		t.Fatalf("NotificationsPoll = %v, want %v", cfg.NotificationsPoll, defaultNotificationsPoll)
	}
}

func TestLoad_RejectsUnknownRole(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`role = "manager"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted unknown role, want error")
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"client", RoleClient, false},
		{"  Client ", RoleClient, false},
		{"barber", RoleBarber, false},
		{"barbier", RoleBarber, false},
		{"", "", true},
		{"stylist", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRole(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRole(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
