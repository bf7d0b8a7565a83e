package categorization

import (
	"regexp"
	"strings"
)

// Category labels, in rule priority order.
const (
	CategoryFruits        = "Fresh Produce – Fruits"
	CategoryVegetables    = "Fresh Produce – Vegetables & Herbs"
	CategoryStaples       = "Staples & Pantry"
	CategorySpices        = "Spices, Condiments & Cooking Essentials"
	CategoryDairy         = "Dairy & Eggs"
	CategoryBakery        = "Bakery & Bread"
	CategorySnacks        = "Snacks & Salty Snacks"
	CategoryConfectionery = "Confectionery & Sweet Tooth"
	CategoryFrozen        = "Frozen & Refrigerated Items"
	CategoryInstant       = "Instant & Ready-to-Cook Foods"
	CategoryBeverages     = "Beverages & Drinks"
	CategoryTobacco       = "Tobacco & Related"
	CategoryHousehold     = "Household, Personal Care & Miscellaneous"
	CategoryCharges       = "Charges & Fees"
	CategoryOthers        = "Others"
)

// Categories is the closed set of labels the engine can return.
var Categories = []string{
	CategoryFruits,
	CategoryVegetables,
	CategoryStaples,
	CategorySpices,
	CategoryDairy,
	CategoryBakery,
	CategorySnacks,
	CategoryConfectionery,
	CategoryFrozen,
	CategoryInstant,
	CategoryBeverages,
	CategoryTobacco,
	CategoryHousehold,
	CategoryCharges,
	CategoryOthers,
}

// IsCategory reports whether label belongs to Categories.
func IsCategory(label string) bool {
	for _, c := range Categories {
		if c == label {
			return true
		}
	}
	return false
}

// Rule maps a lexical predicate to a category.
type Rule struct {
	Category string
	Match    *regexp.Regexp
	// Unless vetoes the rule when the text also matches it. The guard only
	// protects this rule; later rules are still consulted.
	Unless *regexp.Regexp
}

// Matches reports whether the rule claims text.
func (r Rule) Matches(text string) bool {
	if !r.Match.MatchString(text) {
		return false
	}
	return r.Unless == nil || !r.Unless.MatchString(text)
}

// vetoed reports whether the pattern matched but the guard fired.
func (r Rule) vetoed(text string) bool {
	return r.Unless != nil && r.Match.MatchString(text) && r.Unless.MatchString(text)
}

// words compiles a case-insensitive, word-bounded alternation.
func words(alternatives ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\b`)
}

// Terms shared by a rule and the guards that keep it away from other rules.
var (
	saltySnackTerms = []string{
		`chip`, `chips`, `crisps`, `kurkure`, `nacho`, `namkeen`, `snack`, `salty\s*snack`,
		`popcorn`, `cracker`, `wafers?`,
	}
	frozenDessertTerms = []string{
		`ice\s*cream`, `ice-cream`, `icecream`, `cornetto`, `popsicle`, `frozen\s*dessert`, `frozen`, `cone`,
	}
	chocolateBrandTerms = []string{
		`lindt`, `lindor`, `kitkat`, `dukes`, `waffy`,
	}
)

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// DefaultRules returns the ordered rule table. The first matching rule wins,
// so more specific categories sit above broad ones. A category may span
// consecutive rules when a guard must only cover some of its terms.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: CategoryFruits,
			Match: words(
				`apple`, `banana`, `mango`, `orange`, `grape`, `berry`, `berries`, `watermelon`,
				`papaya`, `pineapple`, `kiwi`, `melon`, `pomegranate`, `coconut`, `tender\s*coconut`,
				`guava`, `fruit`, `fruits`,
			),
		},
		{
			Category: CategoryVegetables,
			Match: words(
				`onion`, `tomato`, `potato`, `carrot`, `capsicum`, `bell\s*pepper`, `cabbage`,
				`cauliflower`, `spinach`, `palak`, `methi`, `fenugreek`, `beans`, `beans\s*haricot`,
				`okra`, `lady\s*finger`, `pea`, `peas`, `ginger`, `garlic`, `chilli`, `green\s*chilli`,
				`chilli\s*green`, `mushroom`, `brinjal`, `lemon`, `drumsticks?`, `beetroot`,
				`fresh\s*produce`, `vegetable`, `vegetables`, `leafy\s*vegetable`, `leaves`, `herb`, `herbs`,
			),
		},
		{
			Category: CategoryStaples,
			Match: words(
				`rice`, `sonamasuri`, `poha`, `atta`, `flour`, `sooji`, `maida`, `dal`, `lentil`,
				`pulses`, `grain`, `grains`, `cereal`, `wheat`, `rice\s*flour`, `gram\s*flour`,
				`kabuli\s*chana`, `kala\s*chana`, `chana`, `besan`, `pulse`, `peanut`, `singdana`,
				`oil`, `sunflower\s*oil`, `refined\s*oil`, `groundnut\s*oil`, `edible\s*oil`, `ghee`,
				`sugar`, `salt`, `jaggery`,
			),
		},
		{
			Category: CategorySpices,
			Match: words(
				`spice`, `spices`, `masala`, `masalas`, `salt`, `pepper`, `seasoning`, `sauce`,
				`soy\s*sauce`, `green\s*chilli\s*sauce`, `red\s*chilli\s*sauce`, `pickl(?:e|es)`,
				`pickle\s*jar`, `condiment`, `chutney`, `paste`, `ginger\s*garlic\s*paste`,
				`cumin`, `jeera`, `gravy\s*mix`,
			),
			Unless: words(saltySnackTerms...),
		},
		{
			Category: CategoryDairy,
			Match: words(
				`milk`, `dairy`, `curd`, `yogurt`, `yoghurt`, `paneer`, `cheese`, `butter`, `cream`,
				`ghee`, `dahi`, `lassi`, `buttermilk`, `condensed\s*milk`, `milk\s*powder`,
			),
			Unless: words(concat(
				frozenDessertTerms,
				[]string{`choco`, `chocolate`, `wafer`, `munch`, `flavoured\s*milk`, `kool`, `cafe`, `coffee`},
				chocolateBrandTerms,
			)...),
		},
		{
			Category: CategoryBakery,
			Match: words(
				`bread`, `bun`, `buns`, `croissant`, `bagel`, `bun\s*maska?`, `pastry`, `bakery`,
				`loaf`, `rolls`, `pav`,
			),
		},
		{
			// A bare "roll" is bread unless it is a roll-on.
			Category: CategoryBakery,
			Match:    words(`roll`),
			Unless:   regexp.MustCompile(`(?i)\broll[-\s]*on`),
		},
		{
			Category: CategorySnacks,
			Match:    words(saltySnackTerms...),
			Unless: words(concat(
				[]string{`choco`, `chocolate`, `wafer\s*bar`, `choco\s*coated`},
				chocolateBrandTerms,
			)...),
		},
		{
			Category: CategoryConfectionery,
			Match: words(concat(
				[]string{
					`choco`, `chocolate`, `chocolates`, `candy`, `bubble\s*gum`, `gum`, `sweets?`,
					`dessert`, `nestle\s*munch`, `cookie`, `cookies`, `biscuit`, `biscuits`, `wafer`,
					`wafers`, `waffle`, `croissant`, `cake`, `sweet\s*snack`, `sweet`,
				},
				chocolateBrandTerms,
			)...),
			Unless: words(`cone`),
		},
		{
			Category: CategoryFrozen,
			Match:    words(concat(frozenDessertTerms, []string{`frozen\s*food`})...),
		},
		{
			Category: CategoryInstant,
			Match: words(
				`maggi`, `noodle`, `noodles`, `instant\s*(?:meal|meals|food|foods)`, `ramen`,
				`cup\s*noodles`, `ready[-\s]*to[-\s]*eat`, `ready[-\s]*to[-\s]*cook`, `batter`,
				`meal\s*kit`,
			),
		},
		{
			Category: CategoryBeverages,
			Match: words(
				`juice`, `fruit\s*juice`, `soft\s*drink`, `cola`, `soda`, `mineral\s*water`,
				`bottled\s*water`, `cold\s*drink`, `drink`, `beverage`, `energy\s*drink`, `tea`,
				`coffee`, `chai`, `tea\s*bag`, `milk\s*drink`, `flavoured\s*milk`, `health\s*drink`,
			),
			Unless: words(`instant\s*coffee`, `coffee\s*powder`),
		},
		{
			Category: CategoryTobacco,
			Match: words(
				`cigarette`, `tobacco`, `cigar`, `pan`, `paan`, `supari`, `smoke`, `hookah`,
				`chewing\s*tobacco`, `rolling\s*paper`, `lighter`,
				`classic\s*(?:refined\s*taste|ultra\s*mild)`, `gold\s*flake`, `marlboro`, `wills`,
				`players`, `stellar\s*define`, `magnate`, `magic\s*switch`,
			),
		},
		{
			Category: CategoryHousehold,
			Match: words(
				`bouquet`, `flowers?`, `gift`, `hygiene`, `cleaning`, `soap`, `detergent`, `shampoo`,
				`toothpaste`, `sanitary`, `pad`, `tray`, `tape`, `bopp\s*tape`, `packet`, `box`,
				`packaging`, `wrap`, `misc`, `miscellaneous`, `incense`, `agarbatti`, `mangaldeep`,
				`facial`, `o3\+`, `aroma\s*magic`, `bottle\s*brush`, `sponge`, `gloves?`,
				`garbage\s*bags?`, `roll[-\s]*on`, `instant\s*coffee`, `coffee\s*powder`,
				`science\s*kit`,
			),
		},
		{
			Category: CategoryCharges,
			Match: words(
				`convenience\s*charge`, `delivery\s*charge`, `service\s*charge`, `platform\s*fee`,
				`handling\s*charge`,
			),
		},
		{
			Category: CategoryOthers,
			Match:    regexp.MustCompile(`(?s).`),
		},
	}
}
