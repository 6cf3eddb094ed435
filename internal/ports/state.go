package ports

// FileState is the fingerprint recorded per input file so incremental runs
// can skip unchanged files.
type FileState struct {
	Size    int64 `json:"size"`
	ModTime int64 `json:"mod_time"`
}

// StateStore persists per-project file fingerprints to durable storage.
// The backing store (bbolt) is project-scoped: each projectID gets its own
// namespace. Saves must be transactional: a crash mid-write must not
// corrupt previously committed data.
type StateStore interface {
	// SaveFileStates overwrites the fingerprint set for a project.
	SaveFileStates(projectID string, states map[string]FileState) error

	// LoadFileStates retrieves the fingerprint set for a project.
	// Returns nil, nil when the project has no recorded state.
	LoadFileStates(projectID string) (map[string]FileState, error)

	// DeleteProject removes all recorded state for a project.
	// Idempotent: deleting a nonexistent project is not an error.
	DeleteProject(projectID string) error

	// Close releases the underlying database.
	Close() error
}
