package fabric

import (
	"errors"

	"github.com/context-fabric/fabric/ferr"
)

// ErrInvalidLimit is returned when a search's requested Limit is negative.
var ErrInvalidLimit = errors.New("fabric: limit must be non-negative")

// translateError normalizes an error surfaced by a lower layer (cfm,
// feature, warp, spin) into a ferr kind before it reaches a Fabric
// caller, per spec §7's "every error carries a machine-readable kind".
// cfm, feature, warp, and spin already return ferr types directly for
// every failure they can produce; this only catches the residual case of
// a raw OS error escaping from a path the caller gave us directly (e.g.
// a cache directory fabric itself needs to create), so it never leaks an
// untyped *fs.PathError across the façade boundary.
func translateError(err error, path string) error {
	if err == nil {
		return nil
	}
	if isFerr(err) {
		return err
	}
	return &ferr.IoError{Path: path, Cause: err}
}

func isFerr(err error) bool {
	var corrupt *ferr.CorruptStore
	var version *ferr.VersionMismatch
	var missing *ferr.MissingFeature
	var unknownFeature *ferr.UnknownFeature
	var unknownType *ferr.UnknownType
	var unknownFormat *ferr.UnknownFormat
	var oob *ferr.ArrayOutOfRange
	var parse *ferr.TemplateParseError
	var unknownName *ferr.UnknownName
	var timeout *ferr.Timeout
	var cancelled *ferr.Cancelled
	var ioErr *ferr.IoError
	switch {
	case errors.As(err, &corrupt), errors.As(err, &version), errors.As(err, &missing),
		errors.As(err, &unknownFeature), errors.As(err, &unknownType), errors.As(err, &unknownFormat),
		errors.As(err, &oob), errors.As(err, &parse), errors.As(err, &unknownName),
		errors.As(err, &timeout), errors.As(err, &cancelled), errors.As(err, &ioErr):
		return true
	default:
		return false
	}
}
