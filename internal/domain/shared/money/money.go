package money

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrInvalidAmount    = errors.New("money: invalid decimal amount")
	ErrInvalidRate      = errors.New("money: rate must be a non-negative fraction")
	ErrOverflow         = errors.New("money: amount out of range")
)

// Money keeps amounts in integer minor units (cents) to avoid floating point issues.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(strings.TrimSpace(currency)) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse reads a decimal string such as "150", "33.5" or "19.999". Digits past the
// second decimal place are rounded half-up.
func Parse(value, currency string) (Money, error) {
	amount, err := parseMinorUnits(value)
	if err != nil {
		return Money{}, err
	}
	return New(amount, currency)
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	sum := m.Amount + other.Amount
	if (other.Amount > 0 && sum < m.Amount) || (other.Amount < 0 && sum > m.Amount) {
		return Money{}, ErrOverflow
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	diff := m.Amount - other.Amount
	if (other.Amount > 0 && diff > m.Amount) || (other.Amount < 0 && diff < m.Amount) {
		return Money{}, ErrOverflow
	}
	return Money{Amount: diff, Currency: m.Currency}, nil
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) (Money, error) {
	product := new(big.Int).Mul(big.NewInt(m.Amount), big.NewInt(times))
	if !product.IsInt64() {
		return Money{}, ErrOverflow
	}
	return Money{Amount: product.Int64(), Currency: m.Currency}, nil
}

// ApplyRate returns m*rate rounded half-up to whole minor units.
func (m Money) ApplyRate(r Rate) (Money, error) {
	product := new(big.Int).Mul(big.NewInt(m.Amount), big.NewInt(r.PPM))
	neg := product.Sign() < 0
	product.Abs(product)
	product.Add(product, big.NewInt(ppmBase/2))
	product.Quo(product, big.NewInt(ppmBase))
	if neg {
		product.Neg(product)
	}
	if !product.IsInt64() {
		return Money{}, ErrOverflow
	}
	return Money{Amount: product.Int64(), Currency: m.Currency}, nil
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// Decimal renders the amount with two decimal places, e.g. "825.00".
func (m Money) Decimal() string {
	amount := m.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

func (m Money) String() string {
	return m.Decimal() + " " + m.Currency
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

func parseMinorUnits(value string) (int64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, ErrInvalidAmount
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > math.MaxInt64/100-1 {
		return 0, ErrInvalidAmount
	}
	padded := frac + "00"
	cents := int64(padded[0]-'0')*10 + int64(padded[1]-'0')
	amount := units*100 + cents
	if len(frac) > 2 && frac[2] >= '5' {
		amount++
	}
	if neg {
		amount = -amount
	}
	return amount, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
