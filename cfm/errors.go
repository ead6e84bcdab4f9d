package cfm

import (
	"errors"

	"github.com/context-fabric/fabric/ferr"
)

var (
	errBadMagic   = errors.New("invalid array magic")
	errBadVersion = errors.New("unsupported array version")
)

// wrapCorrupt turns a low-level read failure into a ferr.CorruptStore,
// recording the failure only as its Reason text; no original error is
// wrapped.
func wrapCorrupt(path, reason string) error {
	return &ferr.CorruptStore{Path: path, Reason: reason}
}
