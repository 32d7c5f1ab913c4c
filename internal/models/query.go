package models

// SearchQuery is the structured address sent to a geocoding provider for a single row.
type SearchQuery struct {
	Street     string `json:"street"`
	PostalCode string `json:"postalcode"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// Columns holds the zero-based positions of the logical columns in the input header.
type Columns struct {
	Street     int
	PostalCode int
	City       int
	Country    int
	Lat        int
	Lng        int
}
