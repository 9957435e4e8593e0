package model

// Issue is a tracker issue selected by the update query.
type Issue struct {
	// Key is the project-prefixed issue key (e.g., PROJ-123).
	Key string `json:"key"`

	// Summary is the one-line issue title.
	Summary string `json:"summary"`

	// ProjectKey identifies the project owning the issue's version catalog.
	ProjectKey string `json:"project_key"`

	// FixVersionIDs holds the tracker ids of the currently assigned
	// fixed versions.
	FixVersionIDs []string `json:"fix_version_ids,omitempty"`
}

// Version is a named release in a project's version catalog.
type Version struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived,omitempty"`
	Released bool   `json:"released,omitempty"`
}

// Transition is a workflow action reachable from an issue's current state.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
