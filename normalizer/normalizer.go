package normalizer

import (
	"sort"
	"strings"
	"unicode"
)

// Canonical fuel type names. These are the deduplication keys used across
// differently spelled source records.
const (
	FuelRON100     = "Gasoline (RON 100)"
	FuelRON97      = "Gasoline (RON 97)"
	FuelRON95      = "Gasoline (RON 95)"
	FuelRON91      = "Gasoline (RON 91)"
	FuelDiesel     = "Diesel"
	FuelDieselPlus = "Diesel Plus"
	FuelKerosene   = "Kerosene"
)

type aliasEntry struct {
	alias     string
	canonical string
}

// Normalizer canonicalizes the free-text brand, city and fuel type strings
// arriving from the official bulletin and from user submissions. It never
// fails on dirty input; unknown strings pass through title-cased.
type Normalizer struct {
	vocab Vocabulary

	brandExact map[string]string
	brandByLen []aliasEntry
	brandCanon map[string]bool

	cityExact map[string]string
	cityByLen []aliasEntry

	regionLookup map[string]*Region
	cityRegion   map[string]string
	islandLookup map[string][]string
}

// New builds a Normalizer over the given vocabulary.
func New(vocab Vocabulary) *Normalizer {
	n := &Normalizer{
		vocab:        vocab,
		brandCanon:   map[string]bool{},
		regionLookup: map[string]*Region{},
		cityRegion:   map[string]string{},
		islandLookup: map[string][]string{},
	}
	n.brandExact, n.brandByLen = buildAliasIndex(vocab.Brands)
	n.cityExact, n.cityByLen = buildAliasIndex(vocab.Cities)
	for canonical := range vocab.Brands {
		n.brandCanon[canonical] = true
	}
	for i := range vocab.Regions {
		region := &vocab.Regions[i]
		n.regionLookup[cleanLower(region.Canonical)] = region
		for _, alias := range region.Aliases {
			n.regionLookup[cleanLower(alias)] = region
		}
		for _, city := range region.Cities {
			n.cityRegion[city] = region.Canonical
		}
	}
	for group, regions := range vocab.IslandGroups {
		n.islandLookup[cleanLower(group)] = regions
	}
	return n
}

// NewDefault builds a Normalizer over the production Philippine tables.
func NewDefault() *Normalizer {
	return New(DefaultVocabulary())
}

func buildAliasIndex(table map[string][]string) (map[string]string, []aliasEntry) {
	exact := map[string]string{}
	var byLen []aliasEntry
	for canonical, aliases := range table {
		exact[cleanLower(canonical)] = canonical
		byLen = append(byLen, aliasEntry{cleanLower(canonical), canonical})
		for _, alias := range aliases {
			exact[cleanLower(alias)] = canonical
			byLen = append(byLen, aliasEntry{cleanLower(alias), canonical})
		}
	}
	// Longest alias first so a short alias never shadows a longer one.
	sort.Slice(byLen, func(i, j int) bool {
		if len(byLen[i].alias) != len(byLen[j].alias) {
			return len(byLen[i].alias) > len(byLen[j].alias)
		}
		return byLen[i].alias < byLen[j].alias
	})
	return exact, byLen
}

// NormalizeBrand maps a free-text brand string to its canonical form:
// exact alias match, then whole-word substring match (longest alias first),
// else the title-cased input unchanged.
func (n *Normalizer) NormalizeBrand(raw string) string {
	return normalizeAgainst(raw, n.brandExact, n.brandByLen)
}

// NormalizeCity maps a free-text city or area string to its canonical form
// using the same strategy as NormalizeBrand, after repairing the common
// "QuezonCity" style missing-space malformation.
func (n *Normalizer) NormalizeCity(raw string) string {
	return normalizeAgainst(repairCitySuffix(raw), n.cityExact, n.cityByLen)
}

func normalizeAgainst(raw string, exact map[string]string, byLen []aliasEntry) string {
	cleaned := cleanLower(raw)
	if cleaned == "" {
		return ""
	}
	if canonical, ok := exact[cleaned]; ok {
		return canonical
	}
	for _, entry := range byLen {
		if containsWordSeq(cleaned, entry.alias) {
			return entry.canonical
		}
	}
	return ToTitleCase(strings.Join(strings.Fields(raw), " "))
}

// repairCitySuffix inserts the missing space in strings like "QuezonCity".
func repairCitySuffix(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	if len(lower) > len("city") && strings.HasSuffix(lower, "city") {
		cut := len(s) - len("city")
		prev := s[cut-1]
		if prev != ' ' && prev != '-' {
			return s[:cut] + " " + s[cut:]
		}
	}
	return s
}

// BrandSimilarity scores two brand strings in [0,1]. Identical normalized
// forms score 1. Two strings resolving to different known canonical brands
// score 0, a strong mismatch signal. Anything else falls back to token-set
// Jaccard similarity of the normalized strings.
func (n *Normalizer) BrandSimilarity(a, b string) float64 {
	na := n.NormalizeBrand(a)
	nb := n.NormalizeBrand(b)
	if na == nb {
		return 1
	}
	if n.brandCanon[na] && n.brandCanon[nb] {
		return 0
	}
	return tokenJaccard(na, nb)
}

// CityInArea reports whether the area string resolves to a known region
// whose city list contains the given city.
func (n *Normalizer) CityInArea(area, city string) bool {
	region, ok := n.regionLookup[cleanLower(area)]
	if !ok {
		return false
	}
	normCity := n.NormalizeCity(city)
	for _, member := range region.Cities {
		if member == normCity {
			return true
		}
	}
	return false
}

// SameCity reports whether two location strings normalize to the same
// canonical city.
func (n *Normalizer) SameCity(a, b string) bool {
	na := n.NormalizeCity(a)
	return na != "" && na == n.NormalizeCity(b)
}

// AreaCityMatchConfidence scores how likely a bulletin area string refers to
// a station's city. The score is the maximum over an ordered list of
// strategies; the floor is 0.1, never 0, so a weak-but-possible match is not
// hidden behind a hard zero.
func (n *Normalizer) AreaCityMatchConfidence(area, city string) float64 {
	normArea := n.NormalizeCity(area)
	normCity := n.NormalizeCity(city)

	strategies := []func() float64{
		// Exact canonical equality.
		func() float64 {
			if normArea != "" && normArea == normCity {
				return 1.0
			}
			return 0
		},
		// City is a known member of the area's city list.
		func() float64 {
			if n.CityInArea(area, city) {
				return 0.9
			}
			return 0
		},
		// One normalized string contains the other.
		func() float64 {
			la, lc := cleanLower(normArea), cleanLower(normCity)
			if la != "" && lc != "" && (strings.Contains(la, lc) || strings.Contains(lc, la)) {
				return 0.8
			}
			return 0
		},
		// Area names an island group containing the city's region.
		func() float64 {
			regions, ok := n.islandLookup[cleanLower(area)]
			if !ok {
				return 0
			}
			cityRegion := n.cityRegion[normCity]
			for _, region := range regions {
				if region == cityRegion {
					return 0.7
				}
			}
			return 0
		},
		// Shared-word overlap.
		func() float64 {
			at, ct := tokenSet(normArea), tokenSet(normCity)
			shared := 0
			for t := range at {
				if ct[t] {
					shared++
				}
			}
			if shared == 0 {
				return 0
			}
			maxWords := len(at)
			if len(ct) > maxWords {
				maxWords = len(ct)
			}
			return 0.5 + 0.2*float64(shared)/float64(maxWords)
		},
	}

	score := 0.1
	for _, strategy := range strategies {
		if v := strategy(); v > score {
			score = v
		}
	}
	return score
}

// NormalizeFuelType maps a free-text fuel type string to the canonical set.
// The mapping is a fixed lexical one and is idempotent on canonical names.
func (n *Normalizer) NormalizeFuelType(raw string) string {
	s := cleanLower(raw)
	compact := strings.ReplaceAll(s, " ", "")
	switch {
	case strings.Contains(compact, "ron100"):
		return FuelRON100
	case strings.Contains(compact, "ron97"):
		return FuelRON97
	case strings.Contains(compact, "ron95"):
		return FuelRON95
	case strings.Contains(compact, "ron91"):
		return FuelRON91
	case strings.Contains(s, "diesel"):
		if strings.Contains(s, "plus") || strings.Contains(s, "premium") ||
			strings.Contains(s, "max") || strings.Contains(s, "turbo") {
			return FuelDieselPlus
		}
		return FuelDiesel
	case strings.Contains(s, "kerosene") || strings.Contains(s, "gaas"):
		return FuelKerosene
	case strings.Contains(s, "premium"):
		return FuelRON97
	case strings.Contains(s, "unleaded") || strings.Contains(s, "regular"):
		return FuelRON91
	case strings.Contains(s, "gasoline") || strings.Contains(s, "petrol") || strings.Contains(s, "gas"):
		return FuelRON95
	default:
		return ToTitleCase(strings.Join(strings.Fields(raw), " "))
	}
}

// ToTitleCase converts a string to title case for display purposes.
func ToTitleCase(str string) string {
	if str == "" {
		return str
	}

	runes := []rune(str)
	runes[0] = unicode.ToUpper(runes[0])

	for i := 1; i < len(runes); i++ {
		if unicode.IsSpace(runes[i-1]) || runes[i-1] == '-' || runes[i-1] == '_' {
			runes[i] = unicode.ToUpper(runes[i])
		} else {
			runes[i] = unicode.ToLower(runes[i])
		}
	}

	return string(runes)
}

func cleanLower(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, t := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[t] = true
	}
	return set
}

func tokenJaccard(a, b string) float64 {
	at, bt := tokenSet(a), tokenSet(b)
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}
	inter := 0
	union := len(bt)
	for t := range at {
		if bt[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// containsWordSeq reports whether needle's words appear as a contiguous
// word sequence inside haystack. Both inputs are expected lowercased.
func containsWordSeq(haystack, needle string) bool {
	hw := strings.FieldsFunc(haystack, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	nw := strings.FieldsFunc(needle, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(nw) == 0 || len(nw) > len(hw) {
		return false
	}
	for i := 0; i+len(nw) <= len(hw); i++ {
		match := true
		for j := range nw {
			if hw[i+j] != nw[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
