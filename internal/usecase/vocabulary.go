package usecase

import (
	"strings"

	"github.com/cartwise/backend/internal/pkg/textutil"
)

// dimension is the physical dimension a unit measures
type dimension int

const (
	dimensionMass dimension = iota
	dimensionVolume
	dimensionCount
	// dimensionPortion covers culinary portions (pinch, dash) that map to no
	// purchasable quantity
	dimensionPortion
)

// unitDef converts a written unit into the base unit of its dimension
// (grams, milliliters, pieces).
type unitDef struct {
	dim    dimension
	factor float64
}

// Vocabulary is the immutable language data injected into the normalizer,
// matcher and quantity calculator. Build one with DefaultVocabulary.
type Vocabulary struct {
	units          map[string]unitDef
	modifiers      map[string]bool
	stopWords      map[string]bool
	synonyms       map[string][]string
	categoryGroups map[string]string
	groupOrder     []string
}

// DefaultVocabulary returns the French vocabulary used in production.
// Every call returns fresh maps, so callers cannot mutate shared state.
func DefaultVocabulary() Vocabulary {
	v := Vocabulary{
		units:          make(map[string]unitDef),
		modifiers:      make(map[string]bool),
		stopWords:      make(map[string]bool),
		synonyms:       make(map[string][]string),
		categoryGroups: make(map[string]string),
	}

	addUnits(v.units, unitDef{dimensionMass, 1}, "g", "gr", "gramme", "grammes")
	addUnits(v.units, unitDef{dimensionMass, 1000}, "kg", "kilo", "kilos", "kilogramme", "kilogrammes")
	addUnits(v.units, unitDef{dimensionMass, 0.001}, "mg")
	addUnits(v.units, unitDef{dimensionVolume, 1}, "ml", "millilitre", "millilitres")
	addUnits(v.units, unitDef{dimensionVolume, 10}, "cl", "centilitre", "centilitres")
	addUnits(v.units, unitDef{dimensionVolume, 100}, "dl", "décilitre", "décilitres")
	addUnits(v.units, unitDef{dimensionVolume, 1000}, "l", "litre", "litres")
	addUnits(v.units, unitDef{dimensionVolume, 5},
		"c. à c.", "c.à.c.", "c à c", "càc", "cc", "cuillère à café", "cuillères à café", "cuillere a cafe")
	addUnits(v.units, unitDef{dimensionVolume, 15},
		"c. à s.", "c.à.s.", "c à s", "càs", "cs", "cuillère à soupe", "cuillères à soupe", "cuillere a soupe")
	addUnits(v.units, unitDef{dimensionVolume, 250}, "tasse", "tasses")
	addUnits(v.units, unitDef{dimensionVolume, 200}, "verre", "verres")
	addUnits(v.units, unitDef{dimensionCount, 1},
		"pièce", "pièces", "piece", "pieces", "pc", "pcs",
		"tranche", "tranches", "gousse", "gousses", "feuille", "feuilles",
		"botte", "bottes", "bouquet", "bouquets", "brin", "brins", "branche", "branches",
		"sachet", "sachets", "paquet", "paquets", "boîte", "boîtes", "boite", "boites",
		"conserve", "conserves", "pot", "pots", "barquette", "barquettes")
	addUnits(v.units, unitDef{dimensionPortion, 1}, "pincée", "pincées", "pincee", "pincees", "trait", "traits")

	for _, stem := range []string{
		"haché", "râpé", "émincé", "tranché", "pelé", "épluché", "coupé",
		"égoutté", "concassé", "ciselé", "mixé", "cru", "cuit", "moulu", "battu", "fondu",
	} {
		for _, form := range inflect(stem) {
			v.modifiers[form] = true
		}
	}
	for _, word := range []string{
		"frais", "fraîche", "fraîches", "fraiche", "fraiches",
		"entier", "entière", "entiers", "entières", "entiere", "entieres",
		"finement", "grossièrement", "grossierement",
	} {
		v.modifiers[word] = true
	}

	for _, word := range []string{
		"le", "la", "les", "l", "un", "une", "des", "de", "du", "d",
		"à", "a", "au", "aux", "en",
	} {
		v.stopWords[word] = true
	}

	synonyms := map[string][]string{
		"pâtes":           {"pasta", "spaghetti", "penne", "fusilli"},
		"bœuf":            {"boeuf", "rind"},
		"poulet":          {"volaille", "chicken"},
		"lardons":         {"bacon", "lard"},
		"pommes de terre": {"patates", "kartoffeln"},
		"crème":           {"crème fraîche", "crème entière"},
		"fromage":         {"gruyère", "emmental", "parmesan"},
		"riz":             {"basmati", "risotto"},
	}
	for term, syns := range synonyms {
		v.synonyms[v.synonymKey(term)] = syns
	}

	groups := []struct {
		name       string
		categories []string
	}{
		{"Fruits & Légumes", []string{"fruits", "légumes", "fruits et légumes", "fruits & légumes"}},
		{"Boucherie & Volaille", []string{"boucherie", "viande", "viandes", "volaille", "charcuterie"}},
		{"Poissonnerie", []string{"poissonnerie", "poisson", "poissons", "fruits de mer"}},
		{"Crèmerie & Œufs", []string{"produits laitiers", "crèmerie", "laitier", "fromage", "fromages", "oeufs", "œufs"}},
		{"Boulangerie", []string{"boulangerie", "pain", "pains"}},
		{"Épicerie", []string{"épicerie", "épicerie salée", "épicerie sucrée", "conserves", "pâtes", "riz", "condiments", "épices", "huiles"}},
		{"Surgelés", []string{"surgelés", "surgelé"}},
		{"Boissons", []string{"boissons", "boisson"}},
	}
	for _, g := range groups {
		v.groupOrder = append(v.groupOrder, g.name)
		for _, c := range g.categories {
			v.categoryGroups[textutil.Fold(c)] = g.name
		}
	}
	v.groupOrder = append(v.groupOrder, otherGroup)

	return v
}

// otherGroup collects products whose category has no display group
const otherGroup = "Autres"

func addUnits(units map[string]unitDef, def unitDef, written ...string) {
	for _, w := range written {
		units[w] = def
	}
}

// inflect returns the four gender/number forms of a French past participle
// or adjective stem.
func inflect(stem string) []string {
	return []string{stem, stem + "e", stem + "s", stem + "es"}
}

// lookupUnit resolves a written unit, tolerating missing accents
func (v Vocabulary) lookupUnit(written string) (unitDef, bool) {
	if def, ok := v.units[written]; ok {
		return def, true
	}
	folded := textutil.Fold(written)
	for w, def := range v.units {
		if textutil.Fold(w) == folded {
			return def, true
		}
	}
	return unitDef{}, false
}

// synonymsFor returns the synonyms of a canonical term, or nil
func (v Vocabulary) synonymsFor(term string) []string {
	return v.synonyms[v.synonymKey(term)]
}

// synonymKey folds term and drops stop words, so "pommes de terre" and the
// normalized "pommes terre" share an entry.
func (v Vocabulary) synonymKey(term string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(term)) {
		if !v.stopWords[w] {
			kept = append(kept, w)
		}
	}
	return textutil.Fold(strings.Join(kept, " "))
}

// displayGroup maps a product category onto its shopping list section
func (v Vocabulary) displayGroup(category string) string {
	if group, ok := v.categoryGroups[textutil.Fold(category)]; ok {
		return group
	}
	return otherGroup
}
