package maven

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "BUILD SUCCESS",
			expected: "BUILD SUCCESS",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "exactly at limit",
			input:    strings.Repeat("a", TailLimit),
			expected: strings.Repeat("a", TailLimit),
		},
		{
			name:     "over limit keeps the end",
			input:    strings.Repeat("x", 500) + strings.Repeat("y", TailLimit),
			expected: strings.Repeat("y", TailLimit),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tail(tt.input))
		})
	}
}

func TestTailDoesNotSplitRunes(t *testing.T) {
	// 3-byte runes with TailLimit not a multiple of 3, so a byte-index cut
	// would land mid-rune
	input := strings.Repeat("日", 1000)

	tail := Tail(input)
	assert.True(t, utf8.ValidString(tail))
	assert.LessOrEqual(t, len(tail), TailLimit)
	assert.True(t, strings.HasSuffix(input, tail))
}

func TestRunnerArgs(t *testing.T) {
	r := NewRunner("/project", "/project/pom.xml")

	args := r.args([]string{"test"}, "")
	assert.Equal(t, []string{"-f", "/project/pom.xml", "-B", "test"}, args)

	args = r.args([]string{"test"}, "org.example.CalculatorTest")
	assert.Equal(t, []string{"-f", "/project/pom.xml", "-B", "-Dtest=org.example.CalculatorTest", "test"}, args)

	args = r.args([]string{"clean", "test", "jacoco:report"}, "")
	assert.Equal(t, []string{"-f", "/project/pom.xml", "-B", "clean", "test", "jacoco:report"}, args)
}

func TestStatusDeadProcess(t *testing.T) {
	// PIDs don't go this high on any supported platform
	status := Status(Run{PID: 1 << 30})
	assert.False(t, status.Alive)
	assert.Zero(t, status.CPUPercent)
	assert.Zero(t, status.MemoryRSS)
}
