package models

// Coordinates holds the latitude and longitude reported by a geocoding provider.
// Values are kept as the provider's own decimal strings and are empty when nothing was found.
type Coordinates struct {
	Latitude  string // Latitude of the geographical point.
	Longitude string // Longitude of the geographical point.
}

// Found reports whether the provider returned at least one coordinate.
func (c Coordinates) Found() bool {
	return c.Latitude != "" || c.Longitude != ""
}
