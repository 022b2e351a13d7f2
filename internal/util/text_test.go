package util

import (
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		desc     string
		input    string
		max      int
		expected string
	}{
		{desc: "short string unchanged", input: "Earth", max: 10, expected: "Earth"},
		{desc: "ascii cut", input: "Earth orbits", max: 5, expected: "Earth"},
		{desc: "cut inside two-byte rune", input: "Zürich", max: 2, expected: "Z"},
		{desc: "cut after two-byte rune", input: "Zürich", max: 3, expected: "Zü"},
		{desc: "cut inside three-byte rune", input: "日本語", max: 4, expected: "日"},
		{desc: "cut inside four-byte rune", input: "a😀b", max: 3, expected: "a"},
		{desc: "zero limit", input: "Earth", max: 0, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := Truncate(tt.input, tt.max)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Expected valid UTF-8, got %q", got)
			}
		})
	}
}
