package domain

// Object is a named object exposed by a host scene.
// Ref is opaque to the loader and handed back to the host on placement.
type Object struct {
	Name       string            `json:"name" yaml:"name" mapstructure:"name"`
	Ref        string            `json:"ref,omitempty" yaml:"ref,omitempty" mapstructure:"ref"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty" mapstructure:"attributes"`
}

// ResolvedCatalog maps catalog indices to the objects found for them.
// Groups[0] is always empty; unresolved names are omitted, not padded.
type ResolvedCatalog struct {
	Groups  [][]Object `json:"groups"`
	Missing []string   `json:"missing,omitempty"`
}

// Len returns the number of addressable groups, excluding the sentinel.
func (r *ResolvedCatalog) Len() int {
	if len(r.Groups) == 0 {
		return 0
	}
	return len(r.Groups) - 1
}

// At returns the objects for a catalog index. Index 0 yields nil.
func (r *ResolvedCatalog) At(index int) []Object {
	if index <= EmptyIndex || index >= len(r.Groups) {
		return nil
	}
	return r.Groups[index]
}

// ResolutionState reports, across the whole catalog, whether any name
// resolved and whether any name did not.
type ResolutionState struct {
	AnyFound   bool `json:"any_found"`
	AnyMissing bool `json:"any_missing"`
}

// Complete is true when every name resolved.
func (s ResolutionState) Complete() bool {
	return !s.AnyMissing
}

// Resolution is the outcome of the resolve step, including the optional
// single reload of the scene document.
type Resolution struct {
	Catalog *ResolvedCatalog `json:"catalog"`
	State   ResolutionState  `json:"state"`

	// Reloaded is true when the scene document was loaded and resolution ran again.
	Reloaded bool `json:"reloaded"`

	// ReloadErr is set when a reload was attempted and failed; the first
	// resolution is kept in that case.
	ReloadErr error `json:"-"`
}
