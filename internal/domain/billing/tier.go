package billing

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tier string

const (
	TierFree         Tier = "free"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

var ErrUnknownPlan = errors.New("unknown plan")

// ParseTier normalizes a plan id ("Professional", " free ") into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TierFree, TierProfessional, TierEnterprise:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlan, s)
}

// DisplayName is the capitalized tier name ("Professional").
func (t Tier) DisplayName() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

type Plan struct {
	ID                     Tier   `yaml:"id" json:"id"`
	Name                   string `yaml:"name" json:"name"`
	MonthlyEvaluationLimit int    `yaml:"monthly_evaluation_limit" json:"monthly_evaluation_limit"`
	PriceCents             int64  `yaml:"price_cents" json:"price_cents"`
	Currency               string `yaml:"currency" json:"currency,omitempty"`
	Interval               string `yaml:"interval" json:"interval,omitempty"`
}

// Paid reports whether activating the plan requires a checkout.
func (p Plan) Paid() bool { return p.PriceCents > 0 }

//go:embed plans.yaml
var defaultPlansYAML []byte

// Catalog is the set of plans keyed by tier.
type Catalog struct {
	plans map[Tier]Plan
	order []Tier
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

// DefaultCatalog returns the built-in plans (free 5, professional 50, enterprise 999).
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultPlansYAML))
	if err != nil {
		panic(fmt.Sprintf("billing: embedded plans.yaml is invalid: %v", err))
	}
	return c
}

// LoadCatalogFile reads a catalog from path, or the default catalog when path is empty.
func LoadCatalogFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plans file: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	c := &Catalog{plans: make(map[Tier]Plan, len(file.Plans))}
	for _, p := range file.Plans {
		tier, err := ParseTier(string(p.ID))
		if err != nil {
			return nil, err
		}
		if p.MonthlyEvaluationLimit <= 0 {
			return nil, fmt.Errorf("plan %s: monthly_evaluation_limit must be positive", tier)
		}
		if _, dup := c.plans[tier]; dup {
			return nil, fmt.Errorf("plan %s defined twice", tier)
		}
		p.ID = tier
		c.plans[tier] = p
		c.order = append(c.order, tier)
	}
	if _, ok := c.plans[TierFree]; !ok {
		return nil, errors.New("plans: free plan is required")
	}
	return c, nil
}

func (c *Catalog) Plan(t Tier) (Plan, bool) {
	p, ok := c.plans[t]
	return p, ok
}

// Limit returns the monthly quota of a tier; unknown tiers get the free quota.
func (c *Catalog) Limit(t Tier) int {
	if p, ok := c.plans[t]; ok {
		return p.MonthlyEvaluationLimit
	}
	return c.plans[TierFree].MonthlyEvaluationLimit
}

func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.plans[t])
	}
	return out
}
