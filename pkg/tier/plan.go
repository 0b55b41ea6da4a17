package tier

import "strings"

// Plan is a subscription tier. Plans are totally ordered by Rank.
type Plan string

const (
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// LowestPlan is the tier every account falls back to.
const LowestPlan = PlanStarter

var planRanks = map[Plan]int{
	PlanStarter:      0,
	PlanProfessional: 1,
	PlanEnterprise:   2,
}

// Plans returns the hierarchy from lowest to highest tier.
func Plans() []Plan {
	return []Plan{PlanStarter, PlanProfessional, PlanEnterprise}
}

// ParsePlan converts a raw identifier into a Plan.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrUnknownPlan
	}
	return p, nil
}

// Valid reports whether p is a known tier.
func (p Plan) Valid() bool {
	_, ok := planRanks[p]
	return ok
}

// Rank returns the position of p in the hierarchy, or -1 for unknown plans.
func (p Plan) Rank() int {
	if r, ok := planRanks[p]; ok {
		return r
	}
	return -1
}

// Compare returns -1, 0 or 1 when p ranks below, equal to or above other.
func (p Plan) Compare(other Plan) int {
	switch a, b := p.Rank(), other.Rank(); {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Less reports whether p ranks strictly below other.
func (p Plan) Less(other Plan) bool { return p.Compare(other) < 0 }

// IsUpgradeFrom reports whether moving from current to p is an upgrade.
func (p Plan) IsUpgradeFrom(current Plan) bool { return p.Compare(current) > 0 }

// IsDowngradeFrom reports whether moving from current to p is a downgrade.
func (p Plan) IsDowngradeFrom(current Plan) bool { return p.Compare(current) < 0 }

// Higher returns the plans ranked strictly above p, lowest first.
func (p Plan) Higher() []Plan {
	var out []Plan
	for _, candidate := range Plans() {
		if candidate.IsUpgradeFrom(p) {
			out = append(out, candidate)
		}
	}
	return out
}

func (p Plan) String() string { return string(p) }
