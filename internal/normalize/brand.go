package normalize

import "strings"

// KnownBrands are trade and DIY brands recognised in retailer product names.
// Matching is a heuristic, not an authoritative brand lookup.
var KnownBrands = []string{
	"UniBond", "Evo-Stik", "Gorilla", "Everbuild", "Sika", "Soudal", "CT1",
	"No Nonsense", "Dulux", "Crown", "Ronseal", "Cuprinol", "Zinsser",
	"Bosch", "Makita", "DeWalt", "Milwaukee", "Ryobi", "Stanley", "Irwin",
	"Hultafors", "Erbauer", "Titan", "Forge Steel", "Timco", "Rawlplug",
	"Fischer", "Easyfix", "Wavin", "Pegler", "Bostik", "Polycell", "Thompson's",
	"British Gypsum", "Knauf", "Marley", "Hepworth", "Fernox", "Screwfix",
}

// InferBrand returns the longest known brand contained in name, or ""
func InferBrand(name string) string {
	lower := strings.ToLower(name)
	best := ""
	for _, brand := range KnownBrands {
		if len(brand) > len(best) && strings.Contains(lower, strings.ToLower(brand)) {
			best = brand
		}
	}
	return best
}
