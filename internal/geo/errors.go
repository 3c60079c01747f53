package geo

import "errors"

var (
	// ErrMalformedGeometry is returned when coordinates match neither the
	// polygon nor the multi-polygon shape.
	ErrMalformedGeometry = errors.New("malformed geometry")

	// ErrInvalidCoordinate is returned when a coordinate produces a non-finite
	// projected value.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrMissingName marks a feature without a usable name.
	ErrMissingName = errors.New("missing feature name")

	// ErrEmptyRing is returned for rings with too few points to build a mesh.
	ErrEmptyRing = errors.New("empty ring")

	// ErrDocumentLoad is returned when the document is absent or its top level
	// cannot be parsed.
	ErrDocumentLoad = errors.New("document load failure")
)
