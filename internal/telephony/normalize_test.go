package telephony

import (
	"errors"
	"testing"
)

func TestNormalizeNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"5551234567", "+15551234567"},
		{"(555) 123-4567", "+15551234567"},
		{"555.123.4567", "+15551234567"},
		{"+15551234567", "+15551234567"},
		{"+44 20 7946 0958", "+442079460958"},
		{"442079460958", "+442079460958"},
		{" +1 (555) 123-4567 ", "+15551234567"},
	}
	for _, tc := range cases {
		got, err := NormalizeNumber(tc.in)
		if err != nil {
			t.Fatalf("NormalizeNumber(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeNumber_Rejects(t *testing.T) {
	for _, in := range []string{"", "123", "555-1234", "+1 555 123", "call me"} {
		if _, err := NormalizeNumber(in); !errors.Is(err, ErrInvalidNumber) {
			t.Fatalf("NormalizeNumber(%q): expected ErrInvalidNumber, got %v", in, err)
		}
	}
}
