package timefmt

import (
	"testing"
	"time"
)

func TestStamp_SortsAsString(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 3, 5, 14, 7, 9, 0, time.UTC)
	a := Stamp(base)
	b := Stamp(base.Add(time.Millisecond))
	c := Stamp(base.Add(time.Hour))
	if !(a < b && b < c) {
		t.Fatalf("stamps not ordered: %q %q %q", a, b, c)
	}
}

func TestParse_RoundTripAndMalformed(t *testing.T) {
	t.Parallel()
	orig := time.Date(2025, 3, 5, 14, 7, 9, 123000000, time.UTC)
	got := Parse(Stamp(orig))
	if !got.Equal(orig) {
		t.Fatalf("round trip: got %v want %v", got, orig)
	}
	if !Parse("not a timestamp").IsZero() {
		t.Fatal("malformed input should parse to zero time")
	}
}

func TestLastSeen_DayBoundaries(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), "Today at 00:00"},
		{time.Date(2025, 3, 5, 9, 59, 0, 0, time.UTC), "Today at 09:59"},
		{time.Date(2025, 3, 4, 23, 59, 0, 0, time.UTC), "Yesterday at 23:59"},
		{time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), "Yesterday at 00:00"},
		{time.Date(2025, 3, 3, 23, 59, 0, 0, time.UTC), "3/3/2025 23:59"},
		{time.Date(2024, 12, 31, 8, 5, 0, 0, time.UTC), "31/12/2024 08:05"},
	}
	for _, c := range cases {
		if got := LastSeen(c.at, now); got != c.want {
			t.Fatalf("LastSeen(%v) = %q, want %q", c.at, got, c.want)
		}
	}
}

func TestMessageTime(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	at := time.Date(2025, 3, 5, 7, 3, 0, 0, time.UTC)
	if got := MessageTime(at, now); got != "07:03" {
		t.Fatalf("MessageTime = %q", got)
	}
}
