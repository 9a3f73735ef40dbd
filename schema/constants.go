package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// CoercionMode controls how strictly raw fields must match their attribute type.
	CoercionMode string

	// BulkMode controls how bulk analysis walks the buffer.
	BulkMode string

	// DatabaseBackend represents the database backend for the analysis store.
	DatabaseBackend string

	// AnalyzerKind names a built-in analyzer.
	AnalyzerKind string
)

// Default window geometry.
const (
	DefaultWindowSize    = 50
	DefaultWindowOverlap = 25
)

// DefaultRelation is the relation name used when none is given.
const DefaultRelation = "motion"

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All coercion modes supported.
const (
	StrictCoercion CoercionMode = "strict" // default
	WidenCoercion  CoercionMode = "widen"
)

// All bulk modes supported.
const (
	LiteralBulk BulkMode = "literal" // default
	SlidingBulk BulkMode = "sliding"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All built-in analyzers.
const (
	PeakAnalyzer AnalyzerKind = "peak" // default
	NoAnalyzer   AnalyzerKind = "none"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCoercionModes lists all valid coercion modes.
var ValidCoercionModes = map[CoercionMode]struct{}{
	StrictCoercion: {},
	WidenCoercion:  {},
}

// ValidBulkModes lists all valid bulk modes.
var ValidBulkModes = map[BulkMode]struct{}{
	LiteralBulk: {},
	SlidingBulk: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidAnalyzerKinds lists all valid analyzers.
var ValidAnalyzerKinds = map[AnalyzerKind]struct{}{
	PeakAnalyzer: {},
	NoAnalyzer:   {},
}
