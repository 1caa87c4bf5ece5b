package checklist

// GuardRailHeight is the lifting height in metres above which guard rails
// become mandatory. The comparison is strict.
const GuardRailHeight = 1.6

// RuleKind tags the variants of Rule
type RuleKind int

const (
	RuleAlways RuleKind = iota + 1
	RuleForTypes
	RuleWhenHeightExceeds
)

// Rule is the applicability predicate of one checklist item
type Rule struct {
	Kind      RuleKind
	Types     []EquipmentType
	Threshold float64
}

func always() Rule { return Rule{Kind: RuleAlways} }

func forTypes(types ...EquipmentType) Rule {
	return Rule{Kind: RuleForTypes, Types: types}
}

func whenHeightExceeds(h float64) Rule {
	return Rule{Kind: RuleWhenHeightExceeds, Threshold: h}
}

func (r Rule) hasType(t EquipmentType) bool {
	for _, rt := range r.Types {
		if rt == t {
			return true
		}
	}
	return false
}

// sameFamily reports whether t and every type of the rule share a family
func (r Rule) sameFamily(t EquipmentType) bool {
	f := t.Family()
	if f == FamilyNone || len(r.Types) == 0 {
		return false
	}
	for _, rt := range r.Types {
		if rt.Family() != f {
			return false
		}
	}
	return true
}

var allTailgates = []EquipmentType{
	TailgateFolding, TailgateRetractable, TailgateStacker, TailgateCrane, TailgateSide,
}

var rules = map[string]Rule{
	"docs-0": always(),
	"docs-1": always(),
	"docs-3": always(),

	"visuel-0": always(),
	"visuel-2": always(),
	"visuel-5": always(),
	"visuel-6": always(),
	"visuel-7": forTypes(allTailgates...),

	"securite-0": always(),
	"securite-1": always(),
	"securite-2": always(),
	"securite-3": forTypes(allTailgates...),
	"securite-4": forTypes(allTailgates...),

	"essais-0": always(),
	"essais-1": always(),
	"essais-2": always(),
	"essais-3": always(),

	"chassis-0": forTypes(TableMobile),
	"chassis-1": forTypes(TableMobile),
	"chassis-2": forTypes(TableMobile),

	"stab-0": forTypes(TableFixed, TableMobile),
	"stab-1": forTypes(TableFixed, TableMobile),
	"stab-2": forTypes(TableFixed, TableMobile),

	"energie-0": forTypes(TableFixed, TableMobile, TailgateStacker),
	"energie-1": forTypes(TableFixed, TableMobile, TailgateStacker),
	"energie-2": forTypes(TableFixed, TableMobile, TailgateStacker),

	"poste-0": forTypes(TailgateStacker, TableMobile),
	"poste-1": forTypes(TailgateStacker, TableMobile),

	"gc-0": whenHeightExceeds(GuardRailHeight),
	"gc-1": whenHeightExceeds(GuardRailHeight),
	"gc-2": whenHeightExceeds(GuardRailHeight),
}

// RuleFor returns the requirement rule of an item
func RuleFor(itemID string) (Rule, bool) {
	r, ok := rules[itemID]
	return r, ok
}

// IsRequired decides whether an item must be answered for the given
// equipment type and lifting height. Unknown items are never required.
func IsRequired(itemID string, t EquipmentType, height float64) bool {
	if t == "" {
		return false
	}
	r, ok := rules[itemID]
	if !ok {
		return false
	}

	switch r.Kind {
	case RuleWhenHeightExceeds:
		return height > r.Threshold
	case RuleAlways:
		return true
	case RuleForTypes:
		if r.hasType(t) {
			return true
		}
		// Family fast path: exact membership stays authoritative.
		if r.sameFamily(t) {
			return r.hasType(t)
		}
		return false
	}
	return false
}

// RequiredItems returns the ids required for t and height, in catalog order.
// Items of sections that are not visible are included.
func RequiredItems(t EquipmentType, height float64) []string {
	var ids []string
	for _, s := range sections {
		for pos := range s.Labels {
			id := s.ItemID(pos)
			if IsRequired(id, t, height) {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
