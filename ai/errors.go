package ai

import "errors"

// ErrGeneratorUnavailable is returned by providers that can embed text but
// cannot generate answers.
var ErrGeneratorUnavailable = errors.New("answer generation not available for this provider")
