package columns

import "strings"

// Profile biases header synonyms for one bank's export format. Profiles are
// a hint only; mapping stays correct without them.
type Profile struct {
	Name           string
	FilenameTokens []string
	Synonyms       map[Field][]string
}

// Registry holds named bank profiles.
type Registry struct {
	profiles []*Profile
	byName   map[string]*Profile
}

// NewRegistry creates an empty profile registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Profile)}
}

// Register adds a profile. Panics on duplicate name.
func (r *Registry) Register(p *Profile) {
	key := strings.ToLower(p.Name)
	if _, ok := r.byName[key]; ok {
		panic("duplicate bank profile: " + key)
	}
	r.byName[key] = p
	r.profiles = append(r.profiles, p)
}

// Lookup returns the first profile whose filename tokens appear in hint,
// or nil.
func (r *Registry) Lookup(hint string) *Profile {
	h := strings.ToLower(hint)
	if h == "" {
		return nil
	}
	for _, p := range r.profiles {
		for _, tok := range p.FilenameTokens {
			if strings.Contains(h, tok) {
				return p
			}
		}
	}
	return nil
}

// DefaultRegistry returns a registry with the built-in bank profiles.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Profile{
		Name:           "anz",
		FilenameTokens: []string{"anz"},
		Synonyms: map[Field][]string{
			FieldDescription: {"details", "particulars", "code"},
			FieldAmount:      {"amount"},
		},
	})
	r.Register(&Profile{
		Name:           "asb",
		FilenameTokens: []string{"asb"},
		Synonyms: map[Field][]string{
			FieldDescription: {"payee", "memo"},
			FieldAmount:      {"amount"},
		},
	})
	r.Register(&Profile{
		Name:           "kiwibank",
		FilenameTokens: []string{"kiwibank", "kiwi"},
		Synonyms: map[Field][]string{
			FieldDescription: {"memo description", "op name"},
			FieldAmount:      {"amount", "amount balance"},
		},
	})
	r.Register(&Profile{
		Name:           "westpac",
		FilenameTokens: []string{"westpac"},
		Synonyms: map[Field][]string{
			FieldDescription: {"other party", "description"},
			FieldAmount:      {"amount"},
		},
	})
	r.Register(&Profile{
		Name:           "bnz",
		FilenameTokens: []string{"bnz"},
		Synonyms: map[Field][]string{
			FieldDescription: {"payee", "particulars"},
			FieldAmount:      {"amount"},
		},
	})
	return r
}

// synonymsForHint merges the default synonyms with any profile matched by
// the filename hint; profile synonyms are tried first.
func synonymsForHint(hint string) map[Field][]string {
	merged := make(map[Field][]string, len(defaultSynonyms))
	profile := DefaultRegistry().Lookup(hint)

	for field, syns := range defaultSynonyms {
		if profile != nil {
			merged[field] = append(append([]string{}, profile.Synonyms[field]...), syns...)
		} else {
			merged[field] = syns
		}
	}
	return merged
}
