// Package crs guards against joining layers expressed in different
// coordinate reference systems. No reprojection is performed: two layers
// are comparable only when their reference tags are identical after
// normalization. Joining mismatched layers silently produces nonsensical
// results, so the guard runs before any geometry work.
package crs

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMismatch indicates two layers do not share a coordinate reference.
var ErrMismatch = eris.New("crs: reference system mismatch")

// Normalize canonicalizes a CRS tag for comparison: surrounding whitespace
// is trimmed and the tag is upper-cased, so "epsg:4326" and " EPSG:4326 "
// compare equal.
func Normalize(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}

// AssertCompatible fails with ErrMismatch unless both tags normalize to the
// same non-empty reference identifier.
func AssertCompatible(tagA, tagB string) error {
	a, b := Normalize(tagA), Normalize(tagB)
	if a == "" || b == "" {
		return eris.Wrap(ErrMismatch, "crs: empty reference tag")
	}
	if a != b {
		return eris.Wrapf(ErrMismatch, "crs: %q vs %q", tagA, tagB)
	}
	return nil
}
