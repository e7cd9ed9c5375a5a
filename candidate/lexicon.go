package candidate

// Fact is one lexicon entry. Any trigger phrase found in a hint activates
// the fact and contributes its values to the matching slots.
type Fact struct {
	Domain   string
	Triggers []string
	Words    []string
	Numbers  []string
	Elements []string
	Symbols  []string
	Area     *Area
}

// Area is a lat/lon bounding box used to map coordinates onto a fact.
type Area struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

func (a Area) Contains(lat, lon float64) bool {
	return lat >= a.MinLat && lat <= a.MaxLat && lon >= a.MinLon && lon <= a.MaxLon
}

const (
	DomainScientists = "scientists"
	DomainLandmarks  = "landmarks"
)

// Lexicon is the built-in knowledge base. Order matters: it drives
// candidate order when a domain is activated wholesale.
var Lexicon = []Fact{
	// scientists, paired with a landmark year
	{Domain: DomainScientists, Triggers: []string{"relativity", "einstein", "photoelectric"}, Words: []string{"albert", "einstein"}, Numbers: []string{"1921"}},
	{Domain: DomainScientists, Triggers: []string{"gravity", "gravitation", "newton", "principia"}, Words: []string{"newton", "isaac"}, Numbers: []string{"1687"}},
	{Domain: DomainScientists, Triggers: []string{"evolution", "darwin", "natural selection", "origin of species"}, Words: []string{"darwin", "charles"}, Numbers: []string{"1859"}},
	{Domain: DomainScientists, Triggers: []string{"radioactivity", "curie", "radium", "polonium"}, Words: []string{"curie", "marie"}, Numbers: []string{"1903"}},
	{Domain: DomainScientists, Triggers: []string{"alternating current", "tesla", "induction motor"}, Words: []string{"tesla", "nikola"}, Numbers: []string{"1856"}},
	{Domain: DomainScientists, Triggers: []string{"galileo", "telescope", "heliocentric"}, Words: []string{"galileo"}, Numbers: []string{"1564"}},

	// capitals
	{Domain: DomainLandmarks, Triggers: []string{"france", "french", "eiffel", "louvre"}, Words: []string{"paris"}, Area: &Area{48.6, 49.1, 2.0, 2.7}},
	{Domain: DomainLandmarks, Triggers: []string{"england", "britain", "united kingdom", "big ben", "thames"}, Words: []string{"london"}, Area: &Area{51.2, 51.8, -0.6, 0.4}},
	{Domain: DomainLandmarks, Triggers: []string{"germany", "german", "brandenburg"}, Words: []string{"berlin"}, Area: &Area{52.3, 52.7, 13.0, 13.8}},
	{Domain: DomainLandmarks, Triggers: []string{"spain", "spanish", "prado"}, Words: []string{"madrid"}, Area: &Area{40.3, 40.6, -3.9, -3.5}},
	{Domain: DomainLandmarks, Triggers: []string{"italy", "italian", "colosseum", "vatican"}, Words: []string{"rome"}, Area: &Area{41.7, 42.1, 12.3, 12.7}},

	// chemical symbols
	{Domain: DomainLandmarks, Triggers: []string{"gold"}, Elements: []string{"au"}},
	{Domain: DomainLandmarks, Triggers: []string{"silver"}, Elements: []string{"ag"}},
	{Domain: DomainLandmarks, Triggers: []string{"iron"}, Elements: []string{"fe"}},
	{Domain: DomainLandmarks, Triggers: []string{"copper"}, Elements: []string{"cu"}},
	{Domain: DomainLandmarks, Triggers: []string{"lead"}, Elements: []string{"pb"}},
	{Domain: DomainLandmarks, Triggers: []string{"tin"}, Elements: []string{"sn"}},

	// perfect squares only activate with their domain; hints state them as arithmetic
	{Domain: DomainLandmarks, Numbers: []string{"49", "64", "36", "25", "16"}},

	// named punctuation
	{Domain: DomainLandmarks, Triggers: []string{"exclamation"}, Symbols: []string{"!"}},
	{Domain: DomainLandmarks, Triggers: []string{"at sign", "at symbol"}, Symbols: []string{"@"}},
	{Domain: DomainLandmarks, Triggers: []string{"hash", "hashtag", "pound sign", "number sign"}, Symbols: []string{"#"}},
	{Domain: DomainLandmarks, Triggers: []string{"dollar"}, Symbols: []string{"$"}},
	{Domain: DomainLandmarks, Triggers: []string{"percent"}, Symbols: []string{"%"}},
	{Triggers: []string{"ampersand"}, Symbols: []string{"&"}},
	{Triggers: []string{"asterisk"}, Symbols: []string{"*"}},
	{Triggers: []string{"question mark"}, Symbols: []string{"?"}},
	{Triggers: []string{"underscore"}, Symbols: []string{"_"}},
}
