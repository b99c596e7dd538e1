package company

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	DefaultWorkStart        = "09:00"
	DefaultWorkEnd          = "17:00"
	DefaultLateGraceMinutes = 10
	DefaultCurrency         = "USD"
	DefaultTimezone         = "UTC"
)

// Company is the organization a client owns. Employees and contractors
// join it with JoinCode.
type Company struct {
	ID               string
	Name             string
	JoinCode         string
	OwnerUserID      string
	Address          *string
	WorkStartTime    string
	WorkEndTime      string
	LateGraceMinutes int
	Currency         string
	Timezone         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Location resolves Timezone, falling back to UTC.
func (c Company) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WorkStartOn returns the shift start on the calendar day of day, in the company's zone.
func (c Company) WorkStartOn(day time.Time) time.Time {
	return clockOn(day.In(c.Location()), c.WorkStartTime)
}

// WorkEndOn returns the shift end on the calendar day of day, in the company's zone.
func (c Company) WorkEndOn(day time.Time) time.Time {
	return clockOn(day.In(c.Location()), c.WorkEndTime)
}

// ShiftMinutes is the scheduled length of one working day.
func (c Company) ShiftMinutes() int {
	ref := time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)
	d := clockOn(ref, c.WorkEndTime).Sub(clockOn(ref, c.WorkStartTime))
	if d <= 0 {
		d += 24 * time.Hour
	}
	return int(d.Minutes())
}

func clockOn(day time.Time, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		t, _ = time.Parse("15:04", DefaultWorkStart)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
}

const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateJoinCode returns a random 8 character code without look-alike glyphs.
func GenerateJoinCode() (string, error) {
	b := make([]byte, 8)
	limit := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		b[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}
