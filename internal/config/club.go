package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// ClubConfig carries the business rules of the venue: which nights it is
// open, how far ahead customers can book, and the guest-list limits.
type ClubConfig struct {
	Location              *time.Location
	OpenDays              map[time.Weekday]bool
	ReservationWindowDays int
	GuestListWindowDays   int
	GuestListCutoff       time.Duration // offset from local midnight
	GuestListDailyLimit   int
	GuestListEnforceLimit bool
	GuestListMaxGuests    int // companions allowed per registration
	DraftTTL              time.Duration
	CollaboratorTimeout   time.Duration
}

// LoadClubConfig reads the CLUB_*, RESERVATION_*, GUESTLIST_* and timing
// variables.  Malformed values fall back to defaults, except the timezone
// and the open-days list which are fatal because they change booking rules.
func LoadClubConfig() ClubConfig {
	tz := envStr("CLUB_TIMEZONE", "America/Mexico_City")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("invalid CLUB_TIMEZONE %q: %v", tz, err)
	}
	days, err := ParseWeekdays(envStr("CLUB_OPEN_DAYS", "thu,fri,sat"))
	if err != nil {
		log.Fatalf("invalid CLUB_OPEN_DAYS: %v", err)
	}
	cutoff, err := ParseClock(envStr("GUESTLIST_CUTOFF", "22:00"))
	if err != nil {
		log.Fatalf("invalid GUESTLIST_CUTOFF: %v", err)
	}
	cfg := ClubConfig{
		Location:              loc,
		OpenDays:              days,
		ReservationWindowDays: envInt("RESERVATION_WINDOW_DAYS", 60),
		GuestListWindowDays:   envInt("GUESTLIST_WINDOW_DAYS", 14),
		GuestListCutoff:       cutoff,
		GuestListDailyLimit:   envInt("GUESTLIST_DAILY_LIMIT", 200),
		GuestListEnforceLimit: envBool("GUESTLIST_ENFORCE_LIMIT", false),
		GuestListMaxGuests:    envInt("GUESTLIST_MAX_COMPANIONS", 9),
		DraftTTL:              envDur("DRAFT_TTL", 2*time.Hour),
		CollaboratorTimeout:   envDur("COLLABORATOR_TIMEOUT", 5*time.Second),
	}
	if cfg.ReservationWindowDays < 0 {
		cfg.ReservationWindowDays = 0
	}
	if cfg.GuestListWindowDays < 0 {
		cfg.GuestListWindowDays = 0
	}
	if cfg.GuestListMaxGuests < 0 {
		cfg.GuestListMaxGuests = 0
	}
	if cfg.CollaboratorTimeout <= 0 {
		cfg.CollaboratorTimeout = 5 * time.Second
	}
	return cfg
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekdays parses a comma separated list of three-letter weekday
// names ("thu,fri,sat").  Full names are accepted as well.
func ParseWeekdays(s string) (map[time.Weekday]bool, error) {
	out := map[time.Weekday]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if len(p) > 3 {
			p = p[:3]
		}
		d, ok := weekdayNames[p]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", p)
		}
		out[d] = true
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no open days in %q", s)
	}
	return out, nil
}

// ParseClock parses HH:MM into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
