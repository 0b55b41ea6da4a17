package tier

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// FeatureTable maps each plan to its feature switches.
type FeatureTable map[Plan]map[Feature]bool

// LimitTable maps each plan to its numeric quotas. Unlimited (-1) means no ceiling.
type LimitTable map[Plan]map[LimitName]int64

// PlanInfo carries display metadata for a plan.
type PlanInfo struct {
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description,omitempty" yaml:"description"`
	PriceCents   int64  `json:"price_cents" yaml:"price_cents"`
	Currency     string `json:"currency,omitempty" yaml:"currency"`
	UpgradeBlurb string `json:"upgrade_blurb,omitempty" yaml:"upgrade_blurb"`
}

// Catalog is the immutable set of plan tables. It is safe for concurrent use.
type Catalog struct {
	features FeatureTable
	limits   LimitTable
	info     map[Plan]PlanInfo
}

// CatalogOption configures NewCatalog.
type CatalogOption func(*Catalog)

// WithPlanInfo attaches display metadata to a plan.
func WithPlanInfo(p Plan, info PlanInfo) CatalogOption {
	return func(c *Catalog) {
		c.info[p] = info
	}
}

// NewCatalog deep-copies the tables, fills feature keys missing on a plan with
// false and validates the result.
func NewCatalog(features FeatureTable, limits LimitTable, opts ...CatalogOption) (*Catalog, error) {
	c := &Catalog{
		features: make(FeatureTable, len(Plans())),
		limits:   make(LimitTable, len(Plans())),
		info:     make(map[Plan]PlanInfo, len(Plans())),
	}

	known := make(map[Feature]struct{})
	for _, table := range features {
		for f := range table {
			known[f] = struct{}{}
		}
	}

	for _, p := range Plans() {
		table := make(map[Feature]bool, len(known))
		for f := range known {
			table[f] = features[p][f]
		}
		c.features[p] = table
		c.limits[p] = maps.Clone(limits[p])
		if c.limits[p] == nil {
			c.limits[p] = make(map[LimitName]int64)
		}
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.validate(features, limits); err != nil {
		return nil, err
	}
	return c, nil
}

// MustCatalog is like NewCatalog but panics on an invalid configuration.
func MustCatalog(features FeatureTable, limits LimitTable, opts ...CatalogOption) *Catalog {
	c, err := NewCatalog(features, limits, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) validate(features FeatureTable, limits LimitTable) error {
	for p := range features {
		if !p.Valid() {
			return errors.Join(ErrInvalidCatalog, fmt.Errorf("feature table has unknown plan %q", p))
		}
	}
	for p := range limits {
		if !p.Valid() {
			return errors.Join(ErrInvalidCatalog, fmt.Errorf("limit table has unknown plan %q", p))
		}
	}

	for _, p := range Plans() {
		if _, ok := limits[p]; !ok {
			return errors.Join(ErrInvalidCatalog, fmt.Errorf("plan %s has no limits", p))
		}
		for name, v := range limits[p] {
			if v < Unlimited {
				return errors.Join(ErrInvalidCatalog, fmt.Errorf("plan %s limit %s is negative: %d", p, name, v))
			}
		}
	}

	// Higher plans never get a strictly lower finite quota than lower plans.
	plans := Plans()
	for _, name := range c.LimitNames() {
		for i := 1; i < len(plans); i++ {
			lower, higher := plans[i-1], plans[i]
			lv, lok := c.limits[lower][name]
			hv, hok := c.limits[higher][name]
			if !lok || !hok {
				continue
			}
			if moreGenerous(lv, hv) {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("limit %s decreases from %s (%d) to %s (%d)", name, lower, lv, higher, hv))
			}
		}
	}
	return nil
}

// Feature looks up a feature switch. known is false when the plan or feature
// is absent from the table.
func (c *Catalog) Feature(p Plan, f Feature) (enabled, known bool) {
	table, ok := c.features[p]
	if !ok {
		return false, false
	}
	enabled, known = table[f]
	return enabled, known
}

// Limit looks up a quota. known is false when the plan or limit is absent.
func (c *Catalog) Limit(p Plan, name LimitName) (limit int64, known bool) {
	table, ok := c.limits[p]
	if !ok {
		return 0, false
	}
	limit, known = table[name]
	return limit, known
}

// HasPlan reports whether the catalog carries tables for p.
func (c *Catalog) HasPlan(p Plan) bool {
	_, ok := c.limits[p]
	return ok
}

// Features returns the enabled features of p, sorted.
func (c *Catalog) Features(p Plan) []Feature {
	var out []Feature
	for f, on := range c.features[p] {
		if on {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// FeatureNames returns every feature name known to the catalog, sorted.
func (c *Catalog) FeatureNames() []Feature {
	return slices.Sorted(maps.Keys(c.features[LowestPlan]))
}

// Limits returns a copy of the quotas of p.
func (c *Catalog) Limits(p Plan) map[LimitName]int64 {
	return maps.Clone(c.limits[p])
}

// LimitNames returns every limit name used by any plan, sorted.
func (c *Catalog) LimitNames() []LimitName {
	seen := make(map[LimitName]struct{})
	for _, table := range c.limits {
		for name := range table {
			seen[name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Info returns display metadata for p, falling back to the plan identifier.
func (c *Catalog) Info(p Plan) PlanInfo {
	if info, ok := c.info[p]; ok {
		return info
	}
	return PlanInfo{Name: string(p)}
}

// moreGenerous reports whether quota a allows strictly more than quota b.
func moreGenerous(a, b int64) bool {
	switch {
	case a == b:
		return false
	case a == Unlimited:
		return true
	case b == Unlimited:
		return false
	}
	return a > b
}

// PlanComparison contains the differences between two plans.
type PlanComparison struct {
	From            Plan                      `json:"from"`
	To              Plan                      `json:"to"`
	NewFeatures     []Feature                 `json:"new_features"`
	LostFeatures    []Feature                 `json:"lost_features"`
	IncreasedLimits map[LimitName]LimitChange `json:"increased_limits"`
	DecreasedLimits map[LimitName]LimitChange `json:"decreased_limits"`
}

// LimitChange is a quota transition.
type LimitChange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// HasDecreases reports whether moving to the target plan loses anything.
func (pc *PlanComparison) HasDecreases() bool {
	return len(pc.LostFeatures) > 0 || len(pc.DecreasedLimits) > 0
}

// ComparePlans returns the differences between from and to.
func (c *Catalog) ComparePlans(from, to Plan) *PlanComparison {
	cmp := &PlanComparison{
		From:            from,
		To:              to,
		NewFeatures:     make([]Feature, 0),
		LostFeatures:    make([]Feature, 0),
		IncreasedLimits: make(map[LimitName]LimitChange),
		DecreasedLimits: make(map[LimitName]LimitChange),
	}

	for _, f := range c.FeatureNames() {
		had, _ := c.Feature(from, f)
		has, _ := c.Feature(to, f)
		switch {
		case has && !had:
			cmp.NewFeatures = append(cmp.NewFeatures, f)
		case had && !has:
			cmp.LostFeatures = append(cmp.LostFeatures, f)
		}
	}

	for _, name := range c.LimitNames() {
		a, _ := c.Limit(from, name)
		b, _ := c.Limit(to, name)
		change := LimitChange{From: a, To: b}
		switch {
		case moreGenerous(b, a):
			cmp.IncreasedLimits[name] = change
		case moreGenerous(a, b):
			cmp.DecreasedLimits[name] = change
		}
	}

	return cmp
}
