package tier

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk catalog layout:
//
//	plans:
//	  starter:
//	    info: {name: Starter, price_cents: 0}
//	    features: {pdf_export: true}
//	    limits: {itineraries_per_month: 5, api_calls_per_month: unlimited}
type catalogFile struct {
	Plans map[string]planFile `yaml:"plans"`
}

type planFile struct {
	Info     PlanInfo                `yaml:"info"`
	Features map[string]bool         `yaml:"features"`
	Limits   map[string]yamlLimitVal `yaml:"limits"`
}

// yamlLimitVal accepts an integer or the word "unlimited".
type yamlLimitVal int64

func (v *yamlLimitVal) UnmarshalYAML(node *yaml.Node) error {
	raw := strings.TrimSpace(node.Value)
	if strings.EqualFold(raw, "unlimited") {
		*v = yamlLimitVal(Unlimited)
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("line %d: invalid limit %q: expected integer or \"unlimited\"", node.Line, raw)
	}
	*v = yamlLimitVal(n)
	return nil
}

// LoadCatalogYAML parses a catalog from r and validates it.
func LoadCatalogYAML(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	if len(file.Plans) == 0 {
		return nil, errors.Join(ErrFailedToLoadCatalog, ErrInvalidCatalog, errors.New("no plans defined"))
	}

	features := make(FeatureTable, len(file.Plans))
	limits := make(LimitTable, len(file.Plans))
	opts := make([]CatalogOption, 0, len(file.Plans))

	for rawPlan, pf := range file.Plans {
		p, err := ParsePlan(rawPlan)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadCatalog, ErrInvalidCatalog, fmt.Errorf("plan %q: %w", rawPlan, err))
		}

		ft := make(map[Feature]bool, len(pf.Features))
		for name, on := range pf.Features {
			ft[Feature(name)] = on
		}
		features[p] = ft

		lt := make(map[LimitName]int64, len(pf.Limits))
		for name, v := range pf.Limits {
			lt[LimitName(name)] = int64(v)
		}
		limits[p] = lt

		if pf.Info.Name != "" {
			opts = append(opts, WithPlanInfo(p, pf.Info))
		}
	}

	c, err := NewCatalog(features, limits, opts...)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	return c, nil
}

// LoadCatalogFile opens path and parses it with LoadCatalogYAML.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	defer f.Close()
	return LoadCatalogYAML(f)
}
