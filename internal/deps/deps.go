// Package deps probes the external binaries the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool names an external binary a pipeline stage invokes, the command
// used to resolve it, and whether the pipeline can run without it.
type Tool struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of resolving one tool.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Resolve looks up every tool on PATH and reports one Status per entry,
// in input order.
func Resolve(tools []Tool) []Status {
	results := make([]Status, 0, len(tools))
	for _, req := range tools {
		results = append(results, resolveOne(req))
	}
	return results
}

func resolveOne(req Tool) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	if _, err := exec.LookPath(status.Command); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	return status
}

// MissingRequired filters results down to unavailable entries that are not
// optional. The check command exits non-zero when any remain.
func MissingRequired(results []Status) []Status {
	var missing []Status
	for _, status := range results {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
