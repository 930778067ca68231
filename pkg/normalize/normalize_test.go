package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Acme Corp", "Acme Corp"},
		{"leading article", "the Acme Corp", "Acme Corp"},
		{"capitalized article", "The Acme Corp", "Acme Corp"},
		{"shouting", "ACME CORP", "Acme Corp"},
		{"surrounding whitespace", "  John Smith \n", "John Smith"},
		{"article and whitespace", "  THE new york times ", "New York Times"},
		{"article only prefix word kept", "Theatre Royal", "Theatre Royal"},
		{"repeated article", "the the band", "Band"},
		{"single word", "paris", "Paris"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"unicode", "münchen re", "München Re"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Name(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Name(got), "Name must be idempotent")
		})
	}
}

func TestNameCollapsesVariants(t *testing.T) {
	t.Parallel()

	variants := []string{"the Acme Corp", "Acme Corp", "  ACME CORP", "The ACME corp "}
	for _, v := range variants {
		assert.Equal(t, "Acme Corp", Name(v))
	}
}

func TestRelType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"works for", "WORKS_FOR"},
		{"WORKS_FOR", "WORKS_FOR"},
		{" located in ", "LOCATED_IN"},
		{"owns", "OWNS"},
		{"participated in event", "PARTICIPATED_IN_EVENT"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RelType(tt.in))
	}
}
