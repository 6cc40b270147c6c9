package stage

// Health reports whether a stage's external tool can run right now. Detail
// carries operator guidance when it cannot.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks name as ready to run.
func Healthy(name string) Health { return Health{Name: name, Ready: true} }

// Unhealthy marks name as not runnable for the given reason.
func Unhealthy(name, reason string) Health {
	return Health{Name: name, Ready: false, Detail: reason}
}
