package util

// Observer receives progress and warning notifications from long-running
// passes. It is a side channel only: implementations must never influence
// resolution outcomes, and every entry point accepts a nil observer.
type Observer interface {
	// Progress reports that current of total steps of a named stage are
	// done. Total may be 0 when unknown up front.
	Progress(stage string, current, total int)

	// Warn reports a non-fatal condition (ambiguity, fetch failure). The
	// same text is also collected into the pass result; the callback only
	// exists for live reporting.
	Warn(message string)
}

// NopObserver discards all notifications.
type NopObserver struct{}

func (NopObserver) Progress(string, int, int) {}
func (NopObserver) Warn(string)               {}

// EnsureObserver replaces nil with a NopObserver so callers never branch.
func EnsureObserver(obs Observer) Observer {
	if obs == nil {
		return NopObserver{}
	}
	return obs
}
