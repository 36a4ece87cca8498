package main

import (
	"testing"
)

func TestPrefixMatchPriority(t *testing.T) {
	views := []string{"Roads", "Zoned_Parcels", "Parcels", "Parcel_Owners", "Old_Parcels"}

	fs := NewFuzzySelector(views, nil, nil)

	tests := []struct {
		search   string
		expected []string
	}{
		{
			search:   "parcel",
			expected: []string{"Parcels", "Parcel_Owners", "Zoned_Parcels", "Old_Parcels"}, // prefix matches first, then fuzzy
		},
		{
			search:   "zoned",
			expected: []string{"Zoned_Parcels"},
		},
		{
			search:   "prc",
			expected: []string{"Zoned_Parcels", "Parcels", "Parcel_Owners", "Old_Parcels"}, // all fuzzy matches in original order
		},
		{
			search:   "ROA",
			expected: []string{"Roads"},
		},
		{
			search:   "",
			expected: views,
		},
		{
			search:   "xyz",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			filtered, positions := fs.calculateFiltered(tt.search)

			if len(filtered) != len(tt.expected) {
				t.Errorf("search %q: expected %d results, got %d", tt.search, len(tt.expected), len(filtered))
				t.Errorf("expected: %v", tt.expected)
				t.Errorf("got: %v", filtered)
				return
			}

			for i, expected := range tt.expected {
				if filtered[i] != expected {
					t.Errorf("search %q: at position %d, expected %q, got %q", tt.search, i, expected, filtered[i])
				}
				if got := len(positions[i]); got != len([]rune(tt.search)) {
					t.Errorf("search %q: %q has %d highlighted positions, expected %d", tt.search, filtered[i], got, len(tt.search))
				}
			}
		})
	}
}

func TestIsPrefixMatch(t *testing.T) {
	tests := []struct {
		search   string
		text     string
		expected bool
	}{
		{"parcel", "Parcels", true},
		{"parcel", "Parcel_Owners", true},
		{"parcel", "Zoned_Parcels", false},
		{"prc", "Parcels", false},
		{"", "Parcels", true},
		{"PARCELS", "parcels", true},
	}

	for _, tt := range tests {
		t.Run(tt.search+":"+tt.text, func(t *testing.T) {
			result := isPrefixMatch(tt.search, tt.text)
			if result != tt.expected {
				t.Errorf("isPrefixMatch(%q, %q) = %v, expected %v", tt.search, tt.text, result, tt.expected)
			}
		})
	}
}

func TestFormatNameWithColor(t *testing.T) {
	if got := formatNameWithColor("Roads", nil); got != "Roads" {
		t.Errorf("no positions: got %q", got)
	}

	want := "[darkgreen::b]R[-::-]o[darkgreen::b]a[-::-]ds"
	if got := formatNameWithColor("Roads", []int{0, 2}); got != want {
		t.Errorf("got %q, expected %q", got, want)
	}
}

func TestCleanNames(t *testing.T) {
	got := cleanNames([]string{" Parcels ", "", "Ro\nads", "  "})
	if len(got) != 2 || got[0] != "Parcels" || got[1] != "Roads" {
		t.Errorf("cleanNames = %v", got)
	}
}
