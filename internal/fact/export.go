package fact

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	DogfactsExport bool   `json:"_dogfacts_export"`
	SchemaVersion  string `json:"schema_version"`
	ExportedAt     int64  `json:"exported_at"`
	Count          int    `json:"count"`
}

// ExportSchemaVersion is written to and required in export headers.
const ExportSchemaVersion = "1.0"

// ExportRecord is one line of a JSONL export file. It is used for both
// the header and fact lines so a single decode can tell them apart.
type ExportRecord struct {
	// Header detection field - true only for header line
	DogfactsExport bool `json:"_dogfacts_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	Description string `json:"description,omitempty"`
}

// ToFact converts an ExportRecord to a Fact.
func (r *ExportRecord) ToFact() Fact {
	return Fact{Description: r.Description}
}

// ToExportRecord converts a Fact to an ExportRecord.
func ToExportRecord(f Fact) *ExportRecord {
	return &ExportRecord{Description: f.Description}
}
