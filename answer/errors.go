package answer

import "errors"

var (
	// ErrCaseTextRequired is returned when no case text accompanies a question.
	ErrCaseTextRequired = errors.New("case text required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrGeneration wraps failures of the answer generator.
	ErrGeneration = errors.New("answer generation failed")
)
