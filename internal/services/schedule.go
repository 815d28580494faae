package services

import (
	"fmt"
	"time"

	"equiploan/internal/domain"
	"equiploan/internal/validate"
)

// Zone is the wall-clock zone opening hours and calendar dates are interpreted in.
var Zone = loadZone()

func loadZone() *time.Location {
	if loc, err := time.LoadLocation("Asia/Bangkok"); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}

// CheckClock validates a pickup or return time against opening hours. The opening and
// closing times themselves are allowed; a time strictly inside the break is not.
func CheckClock(cfg domain.SystemConfig, field, hhmm string) error {
	t, ok := validate.Clock(hhmm)
	if !ok {
		return invalid(field, "รูปแบบเวลาไม่ถูกต้อง (HH:MM)")
	}
	open, okOpen := validate.Clock(cfg.OpeningTime)
	closing, okClose := validate.Clock(cfg.ClosingTime)
	if okOpen && t < open {
		return invalid(field, fmt.Sprintf("เวลาต้องไม่ก่อนเวลาเปิดทำการ (%s)", cfg.OpeningTime))
	}
	if okClose && t > closing {
		return invalid(field, fmt.Sprintf("เวลาต้องไม่เกินเวลาปิดทำการ (%s)", cfg.ClosingTime))
	}
	bs, okBS := validate.Clock(cfg.BreakStartTime)
	be, okBE := validate.Clock(cfg.BreakEndTime)
	if okBS && okBE && t > bs && t < be {
		return invalid(field, fmt.Sprintf("ไม่สามารถเลือกเวลาในช่วงพักเที่ยง (%s-%s)", cfg.BreakStartTime, cfg.BreakEndTime))
	}
	return nil
}

// CheckDuration enforces end >= start and the per-user-type maximum loan length, counted
// in calendar days inclusive of both ends.
func CheckDuration(cfg domain.SystemConfig, userType string, start, end time.Time) error {
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	maxDays := cfg.LimitsFor(userType).MaxDays
	if maxDays > 0 && CalendarDays(start, end) > maxDays {
		return invalid("EndDate", fmt.Sprintf("ระยะเวลายืมต้องไม่เกิน %d วัน", maxDays))
	}
	return nil
}

// CalendarDays counts the local calendar days covered by [start, end], both inclusive.
func CalendarDays(start, end time.Time) int {
	s := dateOf(start.In(Zone))
	e := dateOf(end.In(Zone))
	return int(e.Sub(s).Hours()/24) + 1
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// At combines a YYYY-MM-DD date and an HH:MM clock in Zone.
func At(date, hhmm string) (time.Time, error) {
	d, ok := validate.Date(date, Zone)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date %q", date)
	}
	m, ok := validate.Clock(hhmm)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid clock %q", hhmm)
	}
	return d.Add(time.Duration(m) * time.Minute), nil
}

func startOfDay(t time.Time) time.Time {
	t = t.In(Zone)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Zone)
}

func clockOf(t time.Time) string { return t.In(Zone).Format("15:04") }

// CheckStartDay keeps an advance booking between today and the booking horizon.
func CheckStartDay(cfg domain.SystemConfig, start, now time.Time) error {
	day, today := startOfDay(start), startOfDay(now)
	if day.Before(today) {
		return invalid("StartDate", "วันที่เริ่มต้นต้องไม่เป็นวันที่ผ่านมาแล้ว")
	}
	if cfg.MaxAdvanceBookingDays > 0 && day.After(today.AddDate(0, 0, cfg.MaxAdvanceBookingDays)) {
		return invalid("StartDate", fmt.Sprintf("จองล่วงหน้าได้ไม่เกิน %d วัน", cfg.MaxAdvanceBookingDays))
	}
	return nil
}

// CheckReservationWindow applies the booking horizon to the start and opening hours to
// both the pickup and the return.
func CheckReservationWindow(cfg domain.SystemConfig, start, end, now time.Time) error {
	if err := CheckStartDay(cfg, start, now); err != nil {
		return err
	}
	if err := CheckClock(cfg, "PickupTime", clockOf(start)); err != nil {
		return err
	}
	return CheckClock(cfg, "ReturnTime", clockOf(end))
}

// CheckLoanWindow requires an immediate borrow to start today and come back within
// opening hours.
func CheckLoanWindow(cfg domain.SystemConfig, start, end, now time.Time) error {
	if !startOfDay(start).Equal(startOfDay(now)) {
		return invalid("StartDate", "การยืมทันทีต้องเริ่มในวันนี้")
	}
	return CheckClock(cfg, "ReturnTime", clockOf(end))
}
