package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatQuoteNumber builds a quote number from its components.
// Format: DEV-{year}{month}-{counter}, counter zero padded to three digits.
func FormatQuoteNumber(now time.Time, counter int) string {
	return fmt.Sprintf("DEV-%04d%02d-%03d", now.Year(), int(now.Month()), counter)
}

// fallbackQuoteNumber is used when the counter cannot be persisted. It is
// unique per millisecond, which is enough for a single user.
func fallbackQuoteNumber(now time.Time) string {
	return fmt.Sprintf("DEV-%d", now.UnixMilli())
}

// NextQuoteNumber increments the persisted counter and returns the next
// quote number. The counter never resets; the year and month only label it.
// A corrupt counter restarts at 1; an unusable store yields a timestamp
// based number.
func (r *Repository) NextQuoteNumber() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	counter := 0

	raw, err := r.kv.Get(KeyQuoteCounter)
	switch {
	case err == nil:
		n, parseErr := strconv.Atoi(strings.TrimSpace(string(raw)))
		if parseErr != nil || n < 0 {
			r.log.Warn().Str("value", string(raw)).Msg("corrupt quote counter reset")
			n = 0
		}
		counter = n
	case errors.Is(err, ErrNotFound):
	default:
		r.log.Warn().Err(err).Msg("quote counter unreadable")
		return fallbackQuoteNumber(now)
	}

	counter++
	if err := r.kv.Set(KeyQuoteCounter, []byte(strconv.Itoa(counter))); err != nil {
		r.log.Warn().Err(err).Msg("quote counter not saved")
		return fallbackQuoteNumber(now)
	}
	return FormatQuoteNumber(now, counter)
}
