// Package catalog loads the airport master data used as the route graph's node set.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrMissingColumn = errors.New("catalog: required column missing")
	ErrEmpty         = errors.New("catalog: no airports with scheduled service")
)

// AirportInfo is the metadata for one airport. It is never mutated after loading.
type AirportInfo struct {
	IATA         string  `json:"iata"`
	Name         string  `json:"name"`
	Municipality string  `json:"municipality"`
	Country      string  `json:"country"`
	Type         string  `json:"type"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// Catalog maps IATA code to airport metadata.
type Catalog map[string]AirportInfo

// Lookup returns the airport for code, which is normalized first.
func (c Catalog) Lookup(code string) (AirportInfo, bool) {
	a, ok := c[NormalizeIATA(code)]
	return a, ok
}

// Country returns the ISO country of code, or "" when unknown.
func (c Catalog) Country(code string) string {
	return c[code].Country
}

// Codes returns all IATA codes in ascending order.
func (c Catalog) Codes() []string {
	codes := make([]string, 0, len(c))
	for k := range c {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}

// Stats summarizes the catalog by airport type and country.
type Stats struct {
	Total     int            `json:"total"`
	ByType    map[string]int `json:"by_type"`
	ByCountry map[string]int `json:"by_country"`
}

// Stats counts airports per type and per country.
func (c Catalog) Stats() Stats {
	s := Stats{Total: len(c), ByType: map[string]int{}, ByCountry: map[string]int{}}
	for _, a := range c {
		s.ByType[a.Type]++
		s.ByCountry[a.Country]++
	}
	return s
}

// NormalizeIATA trims and upper-cases an airport code.
func NormalizeIATA(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidIATA reports whether code is three ASCII letters after normalization.
func ValidIATA(code string) bool {
	code = NormalizeIATA(code)
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

var requiredColumns = []string{
	"iata_code", "name", "municipality", "iso_country", "type",
	"latitude_deg", "longitude_deg", "scheduled_service",
}

// LoadFile reads an OurAirports-style airports.csv from path.
func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airports csv: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV parses OurAirports CSV rows and keeps airports that have an IATA
// code and scheduled service. Later rows win on duplicate codes.
func LoadCSV(r io.Reader) (Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read airports header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	field := func(rec []string, col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	cat := make(Catalog)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read airports row: %w", err)
		}
		code := NormalizeIATA(field(rec, "iata_code"))
		if code == "" || !strings.EqualFold(field(rec, "scheduled_service"), "yes") {
			continue
		}
		lat, _ := strconv.ParseFloat(field(rec, "latitude_deg"), 64)
		lon, _ := strconv.ParseFloat(field(rec, "longitude_deg"), 64)
		cat[code] = AirportInfo{
			IATA:         code,
			Name:         field(rec, "name"),
			Municipality: field(rec, "municipality"),
			Country:      field(rec, "iso_country"),
			Type:         field(rec, "type"),
			Latitude:     lat,
			Longitude:    lon,
		}
	}
	if len(cat) == 0 {
		return nil, ErrEmpty
	}
	return cat, nil
}

// Limit returns a catalog with the first n codes in ascending order.
// n <= 0 returns c unchanged.
func (c Catalog) Limit(n int) Catalog {
	if n <= 0 || n >= len(c) {
		return c
	}
	out := make(Catalog, n)
	for _, code := range c.Codes()[:n] {
		out[code] = c[code]
	}
	return out
}
