package daterange

import (
	"errors"
	"strings"
	"time"
)

// Layout is the wire format of a calendar date.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDate  = errors.New("daterange: invalid calendar date")
)

// DateRange represents a half-open interval [checkIn, checkOut) of calendar dates.
// Both ends are kept at UTC midnight so that night arithmetic is exact.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Date returns the calendar date of t, keeping the wall-clock day of t's own location.
func Date(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse reads either a plain calendar date or an RFC3339 timestamp.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(Layout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return Date(t), nil
}

// Of builds a range without validating order.
func Of(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: Date(checkIn), CheckOut: Date(checkOut)}
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := Of(checkIn, checkOut)
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

const secondsPerDay = 24 * 60 * 60

// Nights counts whole calendar days between check-in and check-out.
func (dr DateRange) Nights() int {
	return int((Date(dr.CheckOut).Unix() - Date(dr.CheckIn).Unix()) / secondsPerDay)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Date(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

func (dr DateRange) String() string {
	return dr.CheckIn.Format(Layout) + "/" + dr.CheckOut.Format(Layout)
}
