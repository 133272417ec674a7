package worker

import (
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain", "Arsenal", "Arsenal"},
		{"Surrounding space", "  Arsenal ", "Arsenal"},
		{"Null byte", "Ars\x00enal", "Arsenal"},
		{"Newline", "Real\nMadrid", "RealMadrid"},
		{"Accents kept", "Atlético Madrid", "Atlético Madrid"},
		{"Only control", "\x01\x02", ""},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeName(tt.input)
			if got != tt.expected {
				t.Errorf("sanitizeName(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func BenchmarkSanitizeName(b *testing.B) {
	input := "Borussia\tMönchengladbach"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sanitizeName(input)
	}
}
