package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	got, ok := Normalize("  Jane.Doe@Example.com ")
	assert.True(t, ok)
	assert.Equal(t, "jane.doe@example.com", got)

	_, ok = Normalize("not-an-address")
	assert.False(t, ok)

	_, ok = Normalize("")
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"jane.doe@example.com":     "Jane Doe",
		"jane.doe+mlm@example.com": "Jane Doe",
		"sam@example.com":          "Sam",
		"a_b_c@example.com":        "A C",
		"@example.com":             "Participant",
	}
	for in, want := range tests {
		assert.Equal(t, want, DisplayName(in), in)
	}
}
