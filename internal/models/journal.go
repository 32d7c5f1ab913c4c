package models

// JournalEntry is the audit record kept for every geocoded input row.
type JournalEntry struct {
	RunID  string      // RunID identifies the geocsv invocation.
	Line   int         // Line is the source line (or sheet row) of the input record.
	Query  SearchQuery // Query is the address that was sent to the provider.
	Coords Coordinates // Coords are the coordinates written to the output row.
}
