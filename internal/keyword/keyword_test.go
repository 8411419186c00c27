package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		phrase string
		want   bool
	}{
		{"Hirschmann switch model X reboots", "switch", true},
		{"Ethernet SWITCHES keep dropping", "switch", true},
		{"Need a password reset please", "password reset", true},
		{"reset my password", "password reset", false},
		{"switchboard is noisy", "switch", false},
		{"CTO", "cto", true},
		{"Director, IT", "director", true},
		{"", "switch", false},
		{"portal", "", false},
		{"Straße closed", "strasse", true},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.phrase, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.text).Has(tt.phrase))
		})
	}
}

func TestMatchesKeepsOrder(t *testing.T) {
	t.Parallel()

	txt := Normalize("Budget approved", "timeline is Q3")
	assert.Equal(t, []string{"budget", "timeline", "approved"},
		txt.Matches([]string{"budget", "timeline", "project", "approved"}))
	assert.True(t, txt.HasAny("project", "budget"))
	assert.False(t, txt.HasAny("project"))
}

func TestNormalizeEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, Normalize("  ", "--").Empty())
	assert.Equal(t, []string{"vp", "sales"}, Normalize("VP, Sales").Words())
}
