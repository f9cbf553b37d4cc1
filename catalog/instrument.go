package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Instrument maps an instrument code to the metadata needed to bound its
// trading-day range: a name for display, and the listing/delisting dates
// that fence which archive dates actually apply to it.
type Instrument struct {
	Code          string `yaml:"code"`
	Name          string `yaml:"name"`
	ListingDate   string `yaml:"listing_date"`   // YYYYMMDD
	DelistingDate string `yaml:"delisting_date"` // YYYYMMDD, empty means still listed at the horizon
}

// Covers reports whether date falls within the instrument's listed range.
func (i Instrument) Covers(date string) bool {
	if date < i.ListingDate {
		return false
	}
	if i.DelistingDate != "" && date > i.DelistingDate {
		return false
	}
	return true
}

// InstrumentSet is a read-only, code-indexed view over a fixed instrument
// list, built once at startup by LoadInstruments or directly via
// NewInstrumentSet; this package never touches CSV, only the small
// code/name/listing-date YAML list LoadInstruments reads.
type InstrumentSet struct {
	byCode map[string]Instrument
	all    []Instrument
}

// LoadInstruments reads a YAML list of instruments from path. This is the
// small, non-CSV bootstrap list (code/name/listing/delisting dates); the
// actual per-day order and snapshot rows still arrive through RowSource.
func LoadInstruments(path string) (*InstrumentSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read instruments file %q: %w", path, err)
	}
	var items []Instrument
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("catalog: parse instruments file %q: %w", path, err)
	}
	return NewInstrumentSet(items), nil
}

func NewInstrumentSet(items []Instrument) *InstrumentSet {
	s := &InstrumentSet{
		byCode: make(map[string]Instrument, len(items)),
		all:    items,
	}
	for _, it := range items {
		s.byCode[it.Code] = it
	}
	return s
}

func (s *InstrumentSet) Lookup(code string) (Instrument, bool) {
	it, ok := s.byCode[code]
	return it, ok
}

func (s *InstrumentSet) All() []Instrument { return s.all }

// DatesFor filters allDates down to the ones the instrument actually
// trades within, mirroring AssetInfo.init_paths's start/end-date filter.
func (s *InstrumentSet) DatesFor(code string, allDates []string) []string {
	it, ok := s.byCode[code]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(allDates))
	for _, d := range allDates {
		if it.Covers(d) {
			out = append(out, d)
		}
	}
	return out
}
