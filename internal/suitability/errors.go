package suitability

import "github.com/rotisserie/eris"

// Configuration errors surfaced by BuildRules. Callers match them with errors.Is.
var (
	ErrInvalidFeature       = eris.New("suitability: invalid feature definition")
	ErrUnknownMethod        = eris.New("suitability: unknown score method")
	ErrMethodTypeMismatch   = eris.New("suitability: score method does not apply to feature type")
	ErrInvalidCompatibility = eris.New("suitability: invalid compatibility table")
)
