package registry

import (
	"fmt"
	"strings"
)

// Record is the persisted state of one named instance, stored as
// instance.json inside the instance directory. The instance name is the
// directory name and is not duplicated in the file.
//
// A record is written only after the server process has published its pid,
// and is never mutated in place: any change is a full rewrite. A record
// whose PID no longer identifies a live process is stale and must be
// treated as not-running by every reader.
type Record struct {
	// PID of the server process. Meaningful only while that process is alive.
	PID int `json:"pid"`
	// Port the server listens on.
	Port uint16 `json:"port"`
	// DataDir is exclusively owned by this instance.
	DataDir string `json:"data_dir"`
	// InstallationDir is the shared installation root; it survives instance
	// deletion and may serve other instances of the same version.
	InstallationDir string `json:"installation_dir"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	Database        string `json:"database"`
	// Version is the semantic version of the server this instance runs.
	Version string `json:"version"`
}

// URI returns the connection URI for this record. It is constructed for
// display and for feeding to psql, never persisted.
func (r *Record) URI() string {
	return fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s",
		r.Username, r.Password, r.Port, r.Database)
}

// ValidateName checks that name is usable as a single filesystem path
// segment.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name must not be empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("instance name %q is reserved", name)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("instance name %q must not contain path separators", name)
	}
	return nil
}
