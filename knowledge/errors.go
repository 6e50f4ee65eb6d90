package knowledge

import "errors"

var (
	// ErrUnsupportedFormat is returned for knowledge base files that are neither JSON nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported knowledge base format")

	// ErrMalformedDocument is returned when the file cannot be parsed.
	ErrMalformedDocument = errors.New("malformed knowledge base document")

	// ErrNotMapping is returned when the document root is not a label mapping.
	ErrNotMapping = errors.New("knowledge base root must be a mapping of label to chunks")

	// ErrNotStringList is returned when a label's value is not a list of strings.
	ErrNotStringList = errors.New("label value must be a list of strings")

	// ErrEmbedderRequired is returned when a store is created without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
