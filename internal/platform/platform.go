// Package platform resolves the host to a canonical bundle platform tag.
// The tag selects which prebuilt server bundle can run here; an unknown
// (OS, architecture, libc) combination is a hard failure because no correct
// binary exists for it.
package platform

import (
	"fmt"
	"path/filepath"
	"runtime"

	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
)

// Host describes the triple a bundle is selected for.
type Host struct {
	OS   string // GOOS value
	Arch string // GOARCH value
	Musl bool   // linux only: musl instead of glibc
}

// tags maps known hosts to canonical platform tags. Linux entries exist in
// gnu and musl flavors; everything else ignores the libc field.
var tags = map[Host]string{
	{OS: "darwin", Arch: "arm64"}:            "aarch64-apple-darwin",
	{OS: "darwin", Arch: "amd64"}:            "x86_64-apple-darwin",
	{OS: "linux", Arch: "amd64"}:             "x86_64-unknown-linux-gnu",
	{OS: "linux", Arch: "amd64", Musl: true}: "x86_64-unknown-linux-musl",
	{OS: "linux", Arch: "arm64"}:             "aarch64-unknown-linux-gnu",
	{OS: "linux", Arch: "arm64", Musl: true}: "aarch64-unknown-linux-musl",
	{OS: "windows", Arch: "amd64"}:           "x86_64-pc-windows-msvc",
}

// detectMusl reports whether the running linux system uses musl, determined
// by the presence of the musl dynamic loader. Overridable in tests.
var detectMusl = func() bool {
	matches, err := filepath.Glob("/lib/ld-musl-*.so*")
	return err == nil && len(matches) > 0
}

// Resolve maps a host to its canonical platform tag.
// Returns errors.ErrUnsupportedPlatform when no bundle exists for the host.
func Resolve(h Host) (string, error) {
	if h.OS != "linux" {
		h.Musl = false
	}
	if tag, ok := tags[h]; ok {
		return tag, nil
	}
	return "", fmt.Errorf("%w: %s/%s", pgberrors.ErrUnsupportedPlatform, h.OS, h.Arch)
}

// Current resolves the tag for the running host.
func Current() (string, error) {
	h := Host{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if h.OS == "linux" {
		h.Musl = detectMusl()
	}
	return Resolve(h)
}

// ServerBinary is the name of the server executable for the given OS.
func ServerBinary(goos string) string {
	if goos == "windows" {
		return "postgres.exe"
	}
	return "postgres"
}

// HasExecBits reports whether the OS has an executable-bit concept, i.e.
// whether extraction must fix up file modes.
func HasExecBits(goos string) bool {
	return goos != "windows"
}
