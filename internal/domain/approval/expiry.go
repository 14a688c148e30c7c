package approval

import "time"

const (
	MinExpiryDays     = 1
	MaxExpiryDays     = 90
	DefaultExpiryDays = 14
)

// ExpiryDays resolves the requested window; zero selects the default.
func ExpiryDays(days int) (int, error) {
	if days == 0 {
		return DefaultExpiryDays, nil
	}
	if days < MinExpiryDays || days > MaxExpiryDays {
		return 0, ErrInvalidExpiryDays
	}
	return days, nil
}

// ComputeExpiry adds whole calendar days in UTC so every viewer shares one cut-off.
func ComputeExpiry(createdAt time.Time, days int) time.Time {
	return createdAt.UTC().AddDate(0, 0, days)
}
