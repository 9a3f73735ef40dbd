package schema

import "errors"

// Sentinel errors. Callers wrap them with context and match with errors.Is.
var (
	// ErrSchemaMismatch means a record's width differs from its schema.
	ErrSchemaMismatch = errors.New("record does not match schema")

	// ErrEmptyWindow means a window resolved to zero records.
	ErrEmptyWindow = errors.New("empty window")

	// ErrConfiguration means a window size or overlap is not positive.
	ErrConfiguration = errors.New("invalid window configuration")

	// ErrImport means the tabular source could not be read.
	ErrImport = errors.New("import failed")

	// ErrNoAnalyzer means an analysis was requested without an analyzer.
	ErrNoAnalyzer = errors.New("no analyzer configured")

	// ErrDuplicateAttribute means two attributes share a name.
	ErrDuplicateAttribute = errors.New("duplicate attribute")

	// ErrUnknownAttribute means an attribute name is not in the schema.
	ErrUnknownAttribute = errors.New("unknown attribute")
)
