package decode

import (
	"testing"
	"time"
)

func TestTimestampNormalizer(t *testing.T) {
	n := NewJSTNormalizer()

	cases := []struct {
		in   string
		want string
	}{
		{"2024-01-01T00:00:00Z", "2024-01-01 09:00:00"},
		{"2024-01-01T00:00:00.1234567Z", "2024-01-01 09:00:00"},
		{"2023-12-31T20:15:30Z", "2024-01-01 05:15:30"},
		{"2024-02-28T16:00:00Z", "2024-02-29 01:00:00"},
		{"2024-01-01T09:00:00+09:00", "2024-01-01 09:00:00"},
		{"2024-01-01T00:00:00", "2024-01-01 09:00:00"},
		{"2024-01-01 00:00:00", "2024-01-01 09:00:00"},
		{" 2024-07-01T12:00:00Z ", "2024-07-01 21:00:00"},
	}

	for _, tc := range cases {
		got, err := n.Normalize(tc.in)
		if err != nil {
			t.Errorf("Normalize(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Normalize(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTimestampNormalizerRejects(t *testing.T) {
	n := NewJSTNormalizer()
	for _, in := range []string{"", "hello", "2024-13-01T00:00:00Z", "1704067200"} {
		if _, err := n.Normalize(in); err == nil {
			t.Errorf("Normalize(%q): expected error", in)
		}
	}
}

func TestTimestampNormalizerCustomZone(t *testing.T) {
	n := TimestampNormalizer{Location: time.UTC, Layout: time.RFC3339}
	got, err := n.Normalize("2024-01-01T09:00:00+09:00")
	if err != nil {
		t.Fatal(err)
	}
	if got != "2024-01-01T00:00:00Z" {
		t.Fatalf("got %q", got)
	}
}
