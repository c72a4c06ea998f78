package rotation

// RepositoryError reports that the listing repository failed during a
// recompute. Callers only see it on a cold start; once a snapshot exists the
// cache falls back to it.
type RepositoryError struct {
	Err error
}

func (e *RepositoryError) Error() string {
	return "rotation: listing repository: " + e.Err.Error()
}

func (e *RepositoryError) Unwrap() error { return e.Err }
