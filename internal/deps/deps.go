// Package deps checks the availability of external prerequisites: binaries
// on PATH, environment variables, and credential files. Checks never fail;
// absence is reported through Status, not escalated.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency scribe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, CheckBinary(req))
	}
	return results
}

// CheckBinary reports whether a single binary requirement resolves on PATH.
func CheckBinary(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	if _, err := exec.LookPath(cmd); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Available = true
	return status
}

// CheckEnv reports whether every named environment variable is set and
// non-empty. The Detail names the first missing variable so error messages
// can tell the user exactly what to export.
func CheckEnv(name string, vars ...string) Status {
	status := Status{Name: name}
	for _, key := range vars {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			status.Detail = fmt.Sprintf("environment variable %s not set", key)
			return status
		}
	}
	status.Available = true
	return status
}

// CheckFile reports whether the given path exists and is a regular file.
func CheckFile(name, path string) Status {
	status := Status{Name: name, Command: path}
	if strings.TrimSpace(path) == "" {
		status.Detail = "path not configured"
		return status
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		status.Detail = fmt.Sprintf("file %q not found", path)
		return status
	}
	status.Available = true
	return status
}
