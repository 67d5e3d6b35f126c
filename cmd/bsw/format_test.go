package main

import (
	"math"
	"testing"
	"time"
)

func TestHumanSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0s"},
		{12.5, "12.5s"},
		{59.94, "59.9s"},
		{60, "1m00s"},
		{185, "3m05s"},
		{3599.4, "59m59s"},
		{3600, "1h00m"},
		{8040, "2h14m"},
		{-3, "0.0s"},
		{math.NaN(), "0.0s"},
	}

	for _, tt := range tests {
		if got := humanSeconds(tt.in); got != tt.want {
			t.Errorf("humanSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHumanSince(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "never"},
		{"seconds", now.Add(-10 * time.Second), "just now"},
		{"future", now.Add(time.Minute), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3*time.Hour - 20*time.Minute), "3h ago"},
		{"days", now.Add(-50 * time.Hour), "2d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := humanSince(tt.t, now); got != tt.want {
				t.Errorf("humanSince() = %q, want %q", got, tt.want)
			}
		})
	}
}
