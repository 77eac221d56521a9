// Package catalog holds the registry of criteria a rule set may reference.
// The catalog is built once at startup and is read-only afterwards.
package catalog

import (
	"errors"
	"fmt"

	"github.com/TimurManjosov/leadgrade/internal/rules"
)

// ErrCriterionNotFound is returned when a criterion id is not registered.
var ErrCriterionNotFound = errors.New("criterion not found in catalog")

// Catalog is an ordered, immutable set of criteria keyed by id.
type Catalog struct {
	order []string
	byID  map[string]rules.Criterion
}

// New builds a catalog from the given criteria. Every criterion is validated
// and ids must be unique.
func New(criteria ...rules.Criterion) (*Catalog, error) {
	c := &Catalog{
		order: make([]string, 0, len(criteria)),
		byID:  make(map[string]rules.Criterion, len(criteria)),
	}
	for _, cr := range criteria {
		if err := rules.ValidateCriterion(cr); err != nil {
			return nil, err
		}
		if _, dup := c.byID[cr.ID]; dup {
			return nil, fmt.Errorf("%w: %q", rules.ErrDuplicateCriterion, cr.ID)
		}
		cr.Options = append([]string(nil), cr.Options...)
		c.order = append(c.order, cr.ID)
		c.byID[cr.ID] = cr
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultCriteria()...)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in criteria invalid: %v", err))
	}
	return c
}

// Extend returns a new catalog with extra criteria appended.
func (c *Catalog) Extend(extra ...rules.Criterion) (*Catalog, error) {
	return New(append(c.All(), extra...)...)
}

// Lookup returns the criterion with the given id.
func (c *Catalog) Lookup(id string) (rules.Criterion, error) {
	cr, ok := c.byID[id]
	if !ok {
		return rules.Criterion{}, fmt.Errorf("%w: %q", ErrCriterionNotFound, id)
	}
	cr.Options = append([]string(nil), cr.Options...)
	return cr, nil
}

// All returns the criteria in registration order.
func (c *Catalog) All() []rules.Criterion {
	out := make([]rules.Criterion, 0, len(c.order))
	for _, id := range c.order {
		cr := c.byID[id]
		cr.Options = append([]string(nil), cr.Options...)
		out = append(out, cr)
	}
	return out
}

// Len returns the number of criteria.
func (c *Catalog) Len() int { return len(c.order) }

// DefaultCriteria lists the attributes every installation can score on.
func DefaultCriteria() []rules.Criterion {
	return []rules.Criterion{
		{
			ID:      "region",
			Label:   "Region",
			Kind:    rules.KindChoice,
			Options: []string{"North America", "Europe", "APAC", "LATAM", "Middle East & Africa"},
		},
		{
			ID:      "country",
			Label:   "Country",
			Kind:    rules.KindMultiChoice,
			Options: []string{"US", "CA", "GB", "DE", "FR", "NL", "ES", "IT", "AU", "JP", "IN", "BR", "MX"},
		},
		{
			ID:    "industry",
			Label: "Industry",
			Kind:  rules.KindMultiChoice,
			Options: []string{
				"Software", "Financial Services", "Healthcare", "Manufacturing",
				"Retail", "Education", "Government", "Media", "Logistics",
			},
		},
		{
			ID:      "companySize",
			Label:   "Company size",
			Kind:    rules.KindMultiChoice,
			Options: []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1000+"},
		},
		{ID: "employees", Label: "Employees", Kind: rules.KindRange},
		{ID: "foundedYear", Label: "Founded year", Kind: rules.KindRange},
		{ID: "annualRevenue", Label: "Annual revenue (USD)", Kind: rules.KindRange},
		{
			ID:      "role",
			Label:   "Role",
			Kind:    rules.KindChoice,
			Options: []string{"Executive", "Director", "Manager", "Individual Contributor", "Student"},
		},
		{ID: "title", Label: "Job title", Kind: rules.KindText},
	}
}
