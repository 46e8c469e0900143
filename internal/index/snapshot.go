package index

import (
	"sort"
	"strings"

	"github.com/Aman-CERP/termwiki/internal/document"
)

// Snapshot is an immutable view of the index. Everything reachable from a
// Snapshot is shared with later snapshots and must not be modified.
type Snapshot struct {
	// Terms maps every alias to the terms that declare it, in discovery order.
	Terms map[string][]*document.Term `json:"terms"`

	// Formulas maps every computed name to the formulas that produce it.
	Formulas map[string][]*document.Formula `json:"formulas"`

	// Scopes is the sorted set of non-empty scopes of the indexed entries.
	Scopes []string `json:"scopes"`

	// BuiltAt is the publication time in Unix milliseconds. It strictly
	// increases from one snapshot to the next.
	BuiltAt int64 `json:"lastBuiltAt"`

	// Version counts publications since the store was created.
	Version uint64 `json:"version"`

	// Documents is the number of documents parsed into this snapshot.
	Documents int `json:"documents"`

	// TermKeys lists the keys of Terms in first-seen order.
	TermKeys []string `json:"-"`

	formulaKeys []string
	sources     map[string]sourceKeys
}

// sourceKeys records which buckets a document contributed to, so removing
// the document only touches those buckets.
type sourceKeys struct {
	terms    []string
	formulas []string
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Terms:    map[string][]*document.Term{},
		Formulas: map[string][]*document.Formula{},
		Scopes:   []string{},
		sources:  map[string]sourceKeys{},
	}
}

// Lookup returns the terms indexed under name. The slice must not be modified.
func (s *Snapshot) Lookup(name string) []*document.Term {
	return s.Terms[name]
}

// FormulasFor returns the formulas that compute name.
func (s *Snapshot) FormulasFor(name string) []*document.Formula {
	return s.Formulas[name]
}

// HasDocument reports whether path was parsed into this snapshot.
func (s *Snapshot) HasDocument(path string) bool {
	_, ok := s.sources[path]
	return ok
}

// Paths returns the sorted paths of the documents in this snapshot.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.sources))
	for p := range s.sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Search returns the terms whose alias contains query, case-insensitively.
// A term matching through several aliases is returned once.
func (s *Snapshot) Search(query string) []*document.Term {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	seen := make(map[*document.Term]struct{})
	var out []*document.Term
	for _, key := range s.TermKeys {
		if !strings.Contains(strings.ToLower(key), q) {
			continue
		}
		for _, t := range s.Terms[key] {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// Stats summarizes a snapshot.
type Stats struct {
	TermKeys    int    `json:"termKeys"`
	TermEntries int    `json:"termEntries"`
	FormulaKeys int    `json:"formulaKeys"`
	Formulas    int    `json:"formulas"`
	Scopes      int    `json:"scopes"`
	Documents   int    `json:"documents"`
	BuiltAt     int64  `json:"lastBuiltAt"`
	Version     uint64 `json:"version"`
}

// Stats counts the entries of the snapshot. Formulas counts distinct
// formulas, not bucket entries.
func (s *Snapshot) Stats() Stats {
	st := Stats{
		TermKeys:    len(s.Terms),
		FormulaKeys: len(s.Formulas),
		Scopes:      len(s.Scopes),
		Documents:   s.Documents,
		BuiltAt:     s.BuiltAt,
		Version:     s.Version,
	}
	for _, bucket := range s.Terms {
		st.TermEntries += len(bucket)
	}
	distinct := make(map[*document.Formula]struct{})
	for _, bucket := range s.Formulas {
		for _, f := range bucket {
			distinct[f] = struct{}{}
		}
	}
	st.Formulas = len(distinct)
	return st
}
