package dedup

import (
	"sort"
	"strings"

	"github.com/angeles-renjo/gasph-sub000/models"
	"github.com/angeles-renjo/gasph-sub000/normalizer"
)

// highConfidence is the bar an incoming record must clear before it may
// displace an existing record that already has a valid price.
const highConfidence = 0.8

// Candidate is a raw price record together with the match or report
// confidence it arrived with.
type Candidate struct {
	Record     models.PriceRecord
	Confidence float64
}

// Canonical is the single surviving record for one canonical fuel type.
type Canonical struct {
	Record     models.PriceRecord
	FuelType   string
	Confidence float64
}

// Deduplicator collapses raw price records describing the same fuel type
// under different spellings into one canonical record per type.
type Deduplicator struct {
	norm *normalizer.Normalizer
}

// New builds a Deduplicator.
func New(norm *normalizer.Normalizer) *Deduplicator {
	return &Deduplicator{norm: norm}
}

// Deduplicate returns exactly one record per canonical fuel type. Within a
// group the replacement policy is, first satisfied wins:
//  1. no record held yet for the group: take the incoming one;
//  2. held record has no valid price but the incoming one does: replace;
//  3. both have valid prices and the incoming confidence exceeds the
//     high-confidence bar without being below the held one: replace;
// otherwise the held record stays.
func (d *Deduplicator) Deduplicate(candidates []Candidate) []Canonical {
	byFuel := map[string]Canonical{}

	for _, incoming := range candidates {
		fuelType := d.norm.NormalizeFuelType(incoming.Record.FuelType)
		held, exists := byFuel[fuelType]
		if !exists {
			byFuel[fuelType] = Canonical{Record: incoming.Record, FuelType: fuelType, Confidence: incoming.Confidence}
			continue
		}
		if !held.Record.HasValidPrice() && incoming.Record.HasValidPrice() {
			byFuel[fuelType] = Canonical{Record: incoming.Record, FuelType: fuelType, Confidence: incoming.Confidence}
			continue
		}
		if held.Record.HasValidPrice() && incoming.Record.HasValidPrice() &&
			incoming.Confidence > highConfidence && incoming.Confidence >= held.Confidence {
			byFuel[fuelType] = Canonical{Record: incoming.Record, FuelType: fuelType, Confidence: incoming.Confidence}
		}
	}

	out := make([]Canonical, 0, len(byFuel))
	for _, c := range byFuel {
		out = append(out, c)
	}

	// Stable human-predictable ordering: alphabetical by the leading token
	// of the canonical fuel type, then by the literal string. Diesel
	// variants come before Gasoline variants before Kerosene.
	sort.Slice(out, func(i, j int) bool {
		li, lj := leadingToken(out[i].FuelType), leadingToken(out[j].FuelType)
		if li != lj {
			return li < lj
		}
		return out[i].FuelType < out[j].FuelType
	})
	return out
}

func leadingToken(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}
