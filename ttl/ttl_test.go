package ttl_test

import (
	"testing"

	"github.com/vaultx/vaultx/ttl"
)

func TestParse_Valid(t *testing.T) {
	cases := map[string]int64{
		"30s": 30,
		"5m":  300,
		"2h":  7200,
		"1d":  86400,
		"1w":  604800,
	}

	for in, want := range cases {
		got, err := ttl.Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}

		if got != want {
			t.Fatalf("Parse(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{"", "0s", "-5m", "5", "5x", "5 m", " 5m", "99999999999w"}

	for _, in := range cases {
		if _, err := ttl.Parse(in); err == nil {
			t.Fatalf("Parse(%q): expected error, got nil", in)
		}
	}
}

func TestParse_RejectsInt64Overflow(t *testing.T) {
	// n*mult overflows int64 and can wrap back into (0, MaxSeconds], which
	// would slip past a naive post-multiplication range check.
	cases := []string{"95832787499331037w", "9223372036854775807d", "18446744073709551615s"}

	for _, in := range cases {
		if _, err := ttl.Parse(in); err == nil {
			t.Fatalf("Parse(%q): expected overflow to be rejected, got nil error", in)
		}
	}
}

func TestExpiresAt(t *testing.T) {
	if got := ttl.ExpiresAt(100, 30); got != 130 {
		t.Fatalf("ExpiresAt = %d, want 130", got)
	}
}

func TestIsExpired(t *testing.T) {
	exp := int64(100)

	if !ttl.IsExpired(&exp, 100) {
		t.Fatalf("expected expired at exact boundary")
	}

	if ttl.IsExpired(&exp, 99) {
		t.Fatalf("expected not expired before boundary")
	}

	if ttl.IsExpired(nil, 100) {
		t.Fatalf("nil expiry must never be expired")
	}
}

func TestHumanize(t *testing.T) {
	cases := map[int64]string{
		0:     "expired",
		-5:    "expired",
		30:    "30s",
		90:    "1m",
		3700:  "1h 1m",
		90000: "1d 1h 0m",
	}

	for in, want := range cases {
		if got := ttl.Humanize(in); got != want {
			t.Fatalf("Humanize(%d) = %q, want %q", in, got, want)
		}
	}
}
