// Package ttl parses and renders the secret expiry grammar used by the
// add command's --ttl flag and by the audit report.
package ttl

import (
	"strconv"
	"strings"

	"github.com/vaultx/vaultx/vaulterrors"
)

// MaxSeconds bounds a parsed TTL well below the int64 overflow point, so
// that ExpiresAt(now, ttl) can never wrap around.
const MaxSeconds = 1 << 31

// unitSeconds maps the single-letter suffix to its multiplier.
var unitSeconds = map[byte]int64{
	's': 1,
	'm': 60,
	'h': 3600,
	'd': 86400,
	'w': 604800,
}

// Parse reads a TTL string of the form <positive-int><unit>, where unit is
// one of s, m, h, d, w (seconds, minutes, hours, days, weeks). Whitespace,
// a zero quantity, a missing/unknown unit, or a result exceeding MaxSeconds
// are all rejected.
func Parse(s string) (int64, error) {
	if s == "" {
		return 0, vaulterrors.New(vaulterrors.KindInvalidTTL, s, nil)
	}

	last := s[len(s)-1]

	mult, ok := unitSeconds[last]
	if !ok {
		return 0, vaulterrors.New(vaulterrors.KindInvalidTTL, s, nil)
	}

	numPart := s[:len(s)-1]
	if numPart == "" || strings.ContainsAny(numPart, " \t\n") {
		return 0, vaulterrors.New(vaulterrors.KindInvalidTTL, s, nil)
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil || n <= 0 {
		return 0, vaulterrors.New(vaulterrors.KindInvalidTTL, s, nil)
	}

	// Bound n before multiplying: n*mult can overflow int64 and wrap into
	// (0, MaxSeconds] for large enough n, which would otherwise slip past
	// the post-multiplication range check below.
	if n > MaxSeconds/mult {
		return 0, vaulterrors.New(vaulterrors.KindInvalidTTL, s, nil)
	}

	seconds := n * mult
	if seconds <= 0 || seconds > MaxSeconds {
		return 0, vaulterrors.New(vaulterrors.KindInvalidTTL, s, nil)
	}

	return seconds, nil
}

// ExpiresAt computes the absolute expiry Unix timestamp from now plus the
// TTL in seconds.
func ExpiresAt(now int64, ttlSeconds int64) int64 {
	return now + ttlSeconds
}

// IsExpired reports whether expiresAt, if set, is at or before now.
func IsExpired(expiresAt *int64, now int64) bool {
	return expiresAt != nil && *expiresAt <= now
}

// Humanize renders a remaining-seconds duration using a coarse "Nd Nh Nm"
// grammar, dropping to "Ns" below one minute. A non-positive input renders
// as "expired".
func Humanize(remainingSeconds int64) string {
	if remainingSeconds <= 0 {
		return "expired"
	}

	if remainingSeconds < 60 {
		return strconv.FormatInt(remainingSeconds, 10) + "s"
	}

	days := remainingSeconds / 86400
	remainingSeconds %= 86400
	hours := remainingSeconds / 3600
	remainingSeconds %= 3600
	minutes := remainingSeconds / 60

	var b strings.Builder

	if days > 0 {
		b.WriteString(strconv.FormatInt(days, 10))
		b.WriteString("d ")
	}

	if days > 0 || hours > 0 {
		b.WriteString(strconv.FormatInt(hours, 10))
		b.WriteString("h ")
	}

	b.WriteString(strconv.FormatInt(minutes, 10))
	b.WriteString("m")

	return b.String()
}
