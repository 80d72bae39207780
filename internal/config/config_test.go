package config

import (
	"testing"
	"time"
)

func TestParseWeekdays(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []time.Weekday
		wantErr bool
	}{
		{name: "short", in: "thu,fri,sat", want: []time.Weekday{time.Thursday, time.Friday, time.Saturday}},
		{name: "fullNames", in: "Friday, Saturday", want: []time.Weekday{time.Friday, time.Saturday}},
		{name: "unknown", in: "thu,xyz", wantErr: true},
		{name: "empty", in: " , ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeekdays(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for _, d := range tt.want {
				if !got[d] {
					t.Errorf("%s missing", d)
				}
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "22:00", want: 22 * time.Hour},
		{in: " 01:30 ", want: time.Hour + 30*time.Minute},
		{in: "25:00", wantErr: true},
		{in: "late", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseClock(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoadClubConfig(t *testing.T) {
	t.Setenv("CLUB_TIMEZONE", "UTC")
	t.Setenv("CLUB_OPEN_DAYS", "fri,sat")
	t.Setenv("GUESTLIST_CUTOFF", "23:30")
	t.Setenv("GUESTLIST_DAILY_LIMIT", "150")
	t.Setenv("GUESTLIST_ENFORCE_LIMIT", "true")
	t.Setenv("RESERVATION_WINDOW_DAYS", "-5")
	t.Setenv("DRAFT_TTL", "45m")

	cfg := LoadClubConfig()
	if cfg.Location != time.UTC {
		t.Errorf("location = %v", cfg.Location)
	}
	if cfg.OpenDays[time.Thursday] || !cfg.OpenDays[time.Friday] || !cfg.OpenDays[time.Saturday] {
		t.Errorf("open days = %v", cfg.OpenDays)
	}
	if cfg.GuestListCutoff != 23*time.Hour+30*time.Minute {
		t.Errorf("cutoff = %v", cfg.GuestListCutoff)
	}
	if cfg.GuestListDailyLimit != 150 || !cfg.GuestListEnforceLimit {
		t.Errorf("limit = %d enforce = %v", cfg.GuestListDailyLimit, cfg.GuestListEnforceLimit)
	}
	if cfg.ReservationWindowDays != 0 {
		t.Errorf("negative window should clamp to 0, got %d", cfg.ReservationWindowDays)
	}
	if cfg.DraftTTL != 45*time.Minute || cfg.GuestListWindowDays != 14 || cfg.CollaboratorTimeout != 5*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadPaymentConfig(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("PAYMENT_CURRENCY", "MXN")
	cfg := LoadPaymentConfig()
	if cfg.SecretKey != "" || cfg.Currency != "mxn" || cfg.SuccessURL == "" {
		t.Errorf("payment config = %+v", cfg)
	}
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "120")
	t.Setenv("RATE_LIMIT_WRITE_BURST", "0")
	t.Setenv("RATE_LIMIT_WRITE_EVERY", "bogus")

	cfg := LoadRateLimitConfig()
	if !cfg.Enabled || cfg.Prefix != "rl" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Browse != (Bucket{Burst: 120, Every: time.Second}) {
		t.Errorf("browse = %+v", cfg.Browse)
	}
	if cfg.Write != (Bucket{Burst: 1, Every: 20 * time.Second}) {
		t.Errorf("write = %+v, want burst floored to 1 and default interval", cfg.Write)
	}
}
