package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Coordinates is a latitude/longitude pair in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoLookup resolves a postal code to coordinates. The second return value
// is false for unknown codes.
type GeoLookup interface {
	Lookup(postalCode string) (Coordinates, bool)
}

// StaticGazetteer is an in-memory postal code table. It is read-only after
// construction and safe for concurrent use.
type StaticGazetteer struct {
	entries map[string]Coordinates
}

// builtinGazetteer is a sample of US ZIP codes across the main metro areas
var builtinGazetteer = map[string]Coordinates{
	// New York
	"10001": {40.7506, -73.9972},
	"10005": {40.7074, -74.0113},
	"10010": {40.7389, -73.9876},
	"10017": {40.7519, -73.9777},
	"10022": {40.7589, -73.9680},
	"10170": {40.7527, -73.9772},
	// California
	"90028": {34.1016, -118.3267},
	"90038": {34.0928, -118.3287},
	"92101": {32.7157, -117.1611},
	"94103": {37.7726, -122.4099},
	"94108": {37.7749, -122.4194},
	// Texas
	"75201": {32.7767, -96.7970},
	"75202": {32.7831, -96.8067},
	"77002": {29.7604, -95.3698},
	"78701": {30.2672, -97.7431},
	// Florida
	"32250": {30.2735, -81.4388},
	"32801": {28.5383, -81.3792},
	"33132": {25.7739, -80.1973},
	"33139": {25.7817, -80.1309},
	"33140": {25.8103, -80.1269},
	// Illinois
	"60601": {41.8781, -87.6298},
	"60606": {41.8786, -87.6359},
	"60611": {41.8969, -87.6235},
	"60654": {41.8949, -87.6341},
	// Washington
	"98101": {47.6062, -122.3321},
	"98104": {47.6038, -122.3262},
	"98122": {47.6138, -122.3037},
	// Massachusetts
	"02109": {42.3663, -71.0544},
	"02110": {42.3601, -71.0589},
	"02116": {42.3496, -71.0764},
	"02210": {42.3467, -71.0392},
	// Colorado
	"80203": {39.7312, -104.9826},
	"80205": {39.7544, -104.9664},
	"80218": {39.7392, -104.9847},
	"80302": {40.0150, -105.2705},
	// Georgia
	"30303": {33.7490, -84.3880},
	"30308": {33.7709, -84.3831},
	// Arizona
	"85004": {33.4484, -112.0740},
	"85281": {33.4255, -111.9400},
}

// NewStaticGazetteer builds a gazetteer from the built-in table
func NewStaticGazetteer() *StaticGazetteer {
	entries := make(map[string]Coordinates, len(builtinGazetteer))
	for code, coords := range builtinGazetteer {
		entries[code] = coords
	}
	return &StaticGazetteer{entries: entries}
}

// LoadGazetteer builds the built-in table and, when path is not empty,
// extends it with a postal_code,latitude,longitude CSV file. File entries
// override built-in ones.
func LoadGazetteer(path string) (*StaticGazetteer, error) {
	g := NewStaticGazetteer()
	if path == "" {
		return g, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo reference file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := g.extend(f); err != nil {
		return nil, fmt.Errorf("failed to load geo reference file %s: %w", path, err)
	}
	return g, nil
}

func (g *StaticGazetteer) extend(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line++

		code := strings.TrimSpace(record[0])
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		lng, lngErr := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if latErr != nil || lngErr != nil {
			if line == 1 {
				// header row
				continue
			}
			return fmt.Errorf("line %d: invalid coordinates for %q", line, code)
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return fmt.Errorf("line %d: coordinates out of range for %q", line, code)
		}
		g.entries[code] = Coordinates{Latitude: lat, Longitude: lng}
	}
}

// Lookup returns the coordinates for postalCode. ZIP+4 codes are matched on
// their first five digits.
func (g *StaticGazetteer) Lookup(postalCode string) (Coordinates, bool) {
	code := strings.TrimSpace(postalCode)
	if coords, ok := g.entries[code]; ok {
		return coords, true
	}
	if base, _, found := strings.Cut(code, "-"); found {
		coords, ok := g.entries[base]
		return coords, ok
	}
	return Coordinates{}, false
}

// Len returns the number of known postal codes
func (g *StaticGazetteer) Len() int {
	return len(g.entries)
}
