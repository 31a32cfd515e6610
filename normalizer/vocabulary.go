package normalizer

// Vocabulary is the immutable alias configuration the normalizer works
// against. It is injected at construction so tests can substitute alternate
// tables instead of patching package state.
type Vocabulary struct {
	// Brands maps a canonical brand name to its known aliases.
	Brands map[string][]string

	// Cities maps a canonical city or province name to its known aliases.
	Cities map[string][]string

	// Regions lists administrative regions with their aliases and member
	// cities, e.g. NCR / Metro Manila.
	Regions []Region

	// IslandGroups maps a broad grouping (Luzon, Visayas, Mindanao) to the
	// canonical names of the regions it contains.
	IslandGroups map[string][]string
}

// Region is one administrative region entry.
type Region struct {
	Canonical string
	Aliases   []string
	Cities    []string
}

// DefaultVocabulary returns the Philippine fuel-market tables used in
// production. Canonical forms are display-ready.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Brands: map[string][]string{
			"Petron":     {"petron corp", "petron corporation", "petron gas"},
			"Shell":      {"pilipinas shell", "shell philippines", "shell px", "royal dutch shell"},
			"Caltex":     {"caltex philippines", "chevron", "chevron philippines"},
			"Phoenix":    {"phoenix petroleum", "phoenix fuels", "phoenix gas"},
			"Seaoil":     {"sea oil", "seaoil philippines"},
			"Unioil":     {"uni oil", "unioil petroleum"},
			"Flying V":   {"flyingv", "flying-v"},
			"PTT":        {"ptt philippines", "ptt station"},
			"Total":      {"totalenergies", "total philippines"},
			"Cleanfuel":  {"clean fuel"},
			"Jetti":      {"jetti petroleum"},
			"Petro Gazz": {"petrogazz", "petro gas"},
		},
		Cities: map[string][]string{
			"Quezon City": {"qc", "quezon", "kyusi"},
			"Manila":      {"city of manila", "manila city"},
			"Makati":      {"makati city"},
			"Pasig":       {"pasig city"},
			"Taguig":      {"taguig city", "bgc", "bonifacio global city"},
			"Caloocan":    {"caloocan city", "kalookan"},
			"Pasay":       {"pasay city"},
			"Mandaluyong": {"mandaluyong city"},
			"Marikina":    {"marikina city"},
			"Muntinlupa":  {"muntinlupa city"},
			"Parañaque":   {"paranaque", "paranaque city"},
			"Las Piñas":   {"las pinas", "las pinas city"},
			"Valenzuela":  {"valenzuela city"},
			"Malabon":     {"malabon city"},
			"Navotas":     {"navotas city"},
			"San Juan":    {"san juan city"},
			"Cavite":      {"cavite province"},
			"Laguna":      {},
			"Batangas":    {"batangas city"},
			"Rizal":       {"rizal province"},
			"Bulacan":     {},
			"Pampanga":    {},
			"Cebu":        {"cebu city", "metro cebu"},
			"Davao":       {"davao city", "metro davao"},
		},
		Regions: []Region{
			{
				Canonical: "Metro Manila",
				Aliases:   []string{"ncr", "national capital region", "metropolitan manila", "kamaynilaan"},
				Cities: []string{
					"Quezon City", "Manila", "Makati", "Pasig", "Taguig",
					"Caloocan", "Pasay", "Mandaluyong", "Marikina",
					"Muntinlupa", "Parañaque", "Las Piñas", "Valenzuela",
					"Malabon", "Navotas", "San Juan",
				},
			},
			{
				Canonical: "Calabarzon",
				Aliases:   []string{"region iv-a", "region 4a", "southern tagalog"},
				Cities:    []string{"Cavite", "Laguna", "Batangas", "Rizal"},
			},
			{
				Canonical: "Central Luzon",
				Aliases:   []string{"region iii", "region 3"},
				Cities:    []string{"Bulacan", "Pampanga"},
			},
			{
				Canonical: "Central Visayas",
				Aliases:   []string{"region vii", "region 7"},
				Cities:    []string{"Cebu"},
			},
			{
				Canonical: "Davao Region",
				Aliases:   []string{"region xi", "region 11"},
				Cities:    []string{"Davao"},
			},
		},
		IslandGroups: map[string][]string{
			"Luzon":    {"Metro Manila", "Calabarzon", "Central Luzon"},
			"Visayas":  {"Central Visayas"},
			"Mindanao": {"Davao Region"},
		},
	}
}
