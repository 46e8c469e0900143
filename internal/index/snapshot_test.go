package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Search(t *testing.T) {
	s := newTestStore(t)
	snap, _ := s.Rebuild([]Document{
		{Path: "force.md", Content: docForce},
		{Path: "speed.md", Content: docSpeed},
		{Path: "mass.md", Content: docMass},
	})

	tests := []struct {
		name    string
		query   string
		sources []string
	}{
		{"case insensitive", "force", []string{"force.md", "speed.md"}},
		{"one term through two aliases", "f", []string{"force.md", "speed.md"}},
		{"substring", "pee", []string{"speed.md"}},
		{"blank", "  ", nil},
		{"no match", "zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, term := range snap.Search(tt.query) {
				got = append(got, term.SourcePath)
			}
			assert.Equal(t, tt.sources, got)
		})
	}
}

func TestSnapshot_Stats(t *testing.T) {
	s := newTestStore(t)
	snap, _ := s.Rebuild([]Document{
		{Path: "force.md", Content: docForce},
		{Path: "speed.md", Content: docSpeed},
	})

	st := snap.Stats()

	assert.Equal(t, 3, st.TermKeys)    // Force, F, Speed
	assert.Equal(t, 4, st.TermEntries) // Force x2, F, Speed
	assert.Equal(t, 1, st.FormulaKeys)
	assert.Equal(t, 1, st.Formulas)
	assert.Equal(t, 1, st.Scopes)
	assert.Equal(t, 2, st.Documents)
	assert.Equal(t, snap.Version, st.Version)
}

func TestSnapshot_LookupHelpers(t *testing.T) {
	s := newTestStore(t)
	snap, _ := s.Rebuild([]Document{{Path: "force.md", Content: docForce}})

	require.Len(t, snap.FormulasFor("Force"), 1)
	assert.Equal(t, []string{"Mass", "Acceleration"}, snap.FormulasFor("Force")[0].ExternalNames)
	assert.Nil(t, snap.Lookup("missing"))
	assert.True(t, snap.HasDocument("force.md"))
	assert.False(t, snap.HasDocument("other.md"))
}
