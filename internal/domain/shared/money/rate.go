package money

import (
	"math"
	"strconv"
	"strings"
)

const ppmBase = 1_000_000

// Rate is a non-negative fraction stored in parts per million (0.10 == 100000).
type Rate struct {
	PPM int64
}

func NewRate(fraction float64) (Rate, error) {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) || fraction < 0 {
		return Rate{}, ErrInvalidRate
	}
	return Rate{PPM: int64(math.Round(fraction * ppmBase))}, nil
}

func MustRate(fraction float64) Rate {
	r, err := NewRate(fraction)
	if err != nil {
		panic(err)
	}
	return r
}

// ParseRate accepts "0.10" as well as "10%".
func ParseRate(value string) (Rate, error) {
	s := strings.TrimSpace(value)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Rate{}, ErrInvalidRate
	}
	if percent {
		f /= 100
	}
	return NewRate(f)
}

func (r Rate) Fraction() float64 {
	return float64(r.PPM) / ppmBase
}

func (r Rate) String() string {
	return strconv.FormatFloat(r.Fraction(), 'f', -1, 64)
}
