package index

import (
	"maps"
	"slices"
	"sort"

	"github.com/Aman-CERP/termwiki/internal/document"
)

// builder prepares the next snapshot from the current one. It copies the
// maps and key lists up front; bucket slices are shared until touched and
// then replaced, never written in place.
type builder struct {
	terms       map[string][]*document.Term
	formulas    map[string][]*document.Formula
	termKeys    []string
	formulaKeys []string
	sources     map[string]sourceKeys
}

func newBuilder(base *Snapshot) *builder {
	if base == nil {
		base = emptySnapshot()
	}
	return &builder{
		terms:       maps.Clone(base.Terms),
		formulas:    maps.Clone(base.Formulas),
		termKeys:    slices.Clone(base.TermKeys),
		formulaKeys: slices.Clone(base.formulaKeys),
		sources:     maps.Clone(base.sources),
	}
}

func freshBuilder() *builder {
	return &builder{
		terms:    map[string][]*document.Term{},
		formulas: map[string][]*document.Formula{},
		sources:  map[string]sourceKeys{},
	}
}

// remove drops every entry contributed by path.
func (b *builder) remove(path string) {
	sk, ok := b.sources[path]
	if !ok {
		return
	}
	delete(b.sources, path)

	emptied := make(map[string]struct{})
	for _, key := range sk.terms {
		kept := slices.DeleteFunc(slices.Clone(b.terms[key]), func(t *document.Term) bool {
			return t.SourcePath == path
		})
		if len(kept) == 0 {
			delete(b.terms, key)
			emptied[key] = struct{}{}
			continue
		}
		b.terms[key] = kept
	}
	if len(emptied) > 0 {
		b.termKeys = dropKeys(b.termKeys, emptied)
	}

	emptied = make(map[string]struct{})
	for _, key := range sk.formulas {
		kept := slices.DeleteFunc(slices.Clone(b.formulas[key]), func(f *document.Formula) bool {
			return f.SourcePath == path
		})
		if len(kept) == 0 {
			delete(b.formulas, key)
			emptied[key] = struct{}{}
			continue
		}
		b.formulas[key] = kept
	}
	if len(emptied) > 0 {
		b.formulaKeys = dropKeys(b.formulaKeys, emptied)
	}
}

// add indexes a parse result. Callers remove the path first.
func (b *builder) add(res *document.Result) {
	var sk sourceKeys
	seenTerm := make(map[string]struct{})
	for _, t := range res.Terms() {
		for _, alias := range t.Aliases {
			bucket, exists := b.terms[alias]
			if !exists {
				b.termKeys = append(b.termKeys, alias)
			}
			b.terms[alias] = append(bucket[:len(bucket):len(bucket)], t)
			if _, dup := seenTerm[alias]; !dup {
				seenTerm[alias] = struct{}{}
				sk.terms = append(sk.terms, alias)
			}
		}
	}

	seenFormula := make(map[string]struct{})
	for _, f := range res.Formulas {
		for _, name := range f.ComputedNames {
			bucket, exists := b.formulas[name]
			if !exists {
				b.formulaKeys = append(b.formulaKeys, name)
			}
			b.formulas[name] = append(bucket[:len(bucket):len(bucket)], f)
			if _, dup := seenFormula[name]; !dup {
				seenFormula[name] = struct{}{}
				sk.formulas = append(sk.formulas, name)
			}
		}
	}
	b.sources[res.Path] = sk
}

// scopes recomputes the scope set from the retained entries.
func (b *builder) scopes() []string {
	set := make(map[string]struct{})
	for _, bucket := range b.terms {
		for _, t := range bucket {
			if t.Scope != "" {
				set[t.Scope] = struct{}{}
			}
		}
	}
	for _, bucket := range b.formulas {
		for _, f := range bucket {
			if f.Scope != "" {
				set[f.Scope] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (b *builder) snapshot(builtAt int64, version uint64) *Snapshot {
	return &Snapshot{
		Terms:       b.terms,
		Formulas:    b.formulas,
		Scopes:      b.scopes(),
		BuiltAt:     builtAt,
		Version:     version,
		Documents:   len(b.sources),
		TermKeys:    b.termKeys,
		formulaKeys: b.formulaKeys,
		sources:     b.sources,
	}
}

func dropKeys(keys []string, drop map[string]struct{}) []string {
	return slices.DeleteFunc(keys, func(k string) bool {
		_, ok := drop[k]
		return ok
	})
}
