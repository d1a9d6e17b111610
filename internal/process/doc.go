// Package process provides OS-level process control for detached server
// processes: liveness probing and two-phase termination.
//
// The supervisor never holds a handle to the server it starts. The server
// detaches and publishes its pid in a marker file; every later interaction
// goes through the pid alone. This package abstracts the platform-specific
// mechanics (POSIX signals vs. the Windows process tools) behind a single
// Controller interface so the lifecycle logic stays free of platform
// conditionals.
package process
