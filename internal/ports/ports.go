// Package ports implements the port-allocation policy for new instances.
//
// Availability is defined operationally: a short-lived bind on the loopback
// interface succeeds. No reservation is held between the check and the
// server's own bind, so a race with an unrelated process remains possible;
// it surfaces later as a startup failure, which callers must tolerate.
package ports

import (
	"fmt"
	"net"
)

const (
	// dynamicRangeStart is where the scan wraps to instead of walking into
	// reserved territory near the top of the port space.
	dynamicRangeStart = 49152
	// scanCeiling is the highest port the forward scan will try before
	// wrapping, leaving a safety margin below 65535.
	scanCeiling = 65535 - 100
)

// Available reports whether port can be bound on loopback right now.
func Available(port uint16) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}

// Allocate returns the port a new instance should use.
//
// An explicitly requested port is authoritative: it is returned unchanged
// even when occupied, and the conflict surfaces at server bind time. An
// implicit port falls forward from start one port at a time, wrapping into
// the dynamic/private range when the scan exceeds the ceiling. A host with
// nothing bindable at all is reported as port exhaustion.
func Allocate(start uint16, explicit bool) (uint16, error) {
	if explicit {
		return start, nil
	}

	port := start
	for attempts := 0; attempts < 65536; attempts++ {
		if Available(port) {
			return port, nil
		}
		if port >= scanCeiling {
			port = dynamicRangeStart
			continue
		}
		port++
	}
	return 0, fmt.Errorf("no free port found scanning from %d", start)
}
