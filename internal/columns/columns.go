// Package columns resolves user supplied column selectors against the header of the input table.
package columns

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/UnknownOlympus/geocsv/internal/models"
)

// ErrColumnNotFound is returned when a selector names a column that the header does not have.
var ErrColumnNotFound = errors.New("header column not found")

// Selectors are the raw column identifiers given on the command line.
// Street, PostalCode, City and Country accept a zero-based index or a header name,
// Lat and Lng accept a header name only.
type Selectors struct {
	Street     string
	PostalCode string
	City       string
	Country    string
	Lat        string
	Lng        string
}

// Resolve maps every selector to a column position of header.
//
// A numeric selector is used as is and is not checked against the header length;
// rows that are too short simply yield empty values for it.
func Resolve(sel Selectors, header []string) (models.Columns, error) {
	var (
		cols models.Columns
		err  error
	)

	if cols.Street, err = indexOrName(sel.Street, "street", header); err != nil {
		return models.Columns{}, err
	}
	if cols.PostalCode, err = indexOrName(sel.PostalCode, "postalcode", header); err != nil {
		return models.Columns{}, err
	}
	if cols.City, err = indexOrName(sel.City, "city", header); err != nil {
		return models.Columns{}, err
	}
	if cols.Country, err = indexOrName(sel.Country, "country", header); err != nil {
		return models.Columns{}, err
	}
	if cols.Lat, err = byName(sel.Lat, "lat", header); err != nil {
		return models.Columns{}, err
	}
	if cols.Lng, err = byName(sel.Lng, "lng", header); err != nil {
		return models.Columns{}, err
	}

	return cols, nil
}

func indexOrName(selector, role string, header []string) (int, error) {
	if idx, ok := parseIndex(selector); ok {
		return idx, nil
	}
	return byName(selector, role, header)
}

func byName(selector, role string, header []string) (int, error) {
	idx := slices.Index(header, selector)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q for %s", ErrColumnNotFound, selector, role)
	}
	return idx, nil
}

// parseIndex accepts plain decimal digits only, so "+1" or "-0" are header names.
func parseIndex(selector string) (int, bool) {
	if selector == "" {
		return 0, false
	}
	for _, r := range selector {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(selector)
	if err != nil {
		return 0, false
	}
	return idx, true
}
