package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{M}0-9 _'\\-]{1,50}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reClock = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// DateLayout is the calendar-day form used by request payloads.
const DateLayout = "2006-01-02"

var structs = validator.New(validator.WithRequiredStructEnabled())

func init() {
	_ = structs.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return reClock.MatchString(fl.Field().String())
	})
	_ = structs.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	_ = structs.RegisterValidation("resid", func(fl validator.FieldLevel) bool {
		return reID.MatchString(fl.Field().String())
	})
}

// Struct validates tagged command structs. On failure it returns the name of the first
// offending field and the failed tag.
func Struct(v any) (field, tag string, ok bool) {
	err := structs.Struct(v)
	if err == nil {
		return "", "", true
	}
	if errs, isVE := err.(validator.ValidationErrors); isVE && len(errs) > 0 {
		return errs[0].Field(), errs[0].Tag(), false
	}
	return "", err.Error(), false
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 50 {
		s = string(r[:50])
	}
	return s, reQ.MatchString(s)
}

// ID validates a simple resource identifier (equipment/loan/reservation ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Clock parses an HH:MM wall-clock time into minutes after midnight.
func Clock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !reClock.MatchString(s) {
		return 0, false
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// Date parses a YYYY-MM-DD calendar date in loc.
func Date(s string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	return l >= 8 && l <= 72
}
