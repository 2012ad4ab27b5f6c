package domain

// Report summarizes one pass over a synth document.
type Report struct {
	Extents   [3]int          `json:"extents"`
	Groups    int             `json:"groups"`
	SceneFile string          `json:"scene_file"`
	State     ResolutionState `json:"state"`
	Missing   []string        `json:"missing,omitempty"`
	Reloaded  bool            `json:"reloaded"`
	Placed    int             `json:"placed"`

	// Commands is filled when the pass collects commands instead of
	// instantiating them.
	Commands []PlacementCommand `json:"commands,omitempty"`
}
