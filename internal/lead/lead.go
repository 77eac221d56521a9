// Package lead defines the contact record that is scored, tiered and queried.
package lead

import (
	"errors"
	"strings"

	"github.com/TimurManjosov/leadgrade/internal/emaildomain"
	"github.com/TimurManjosov/leadgrade/internal/threshold"
)

// ErrNotFound is returned when a lead id is unknown.
var ErrNotFound = errors.New("lead not found")

// Lead is a contact record. The fields after ManuallyQualified are derived by
// evaluation and are overwritten on every pass.
//
// Employees, FoundedYear and AnnualRevenue use 0 for "unknown". Field reports
// them as absent, so no segment filter or range condition matches a zero.
type Lead struct {
	ID            string         `json:"id" yaml:"id"`
	Email         string         `json:"email" yaml:"email"`
	Type          string         `json:"type,omitempty" yaml:"type,omitempty"`
	Region        string         `json:"region,omitempty" yaml:"region,omitempty"`
	Country       string         `json:"country,omitempty" yaml:"country,omitempty"`
	Industry      string         `json:"industry,omitempty" yaml:"industry,omitempty"`
	Title         string         `json:"title,omitempty" yaml:"title,omitempty"`
	Role          string         `json:"role,omitempty" yaml:"role,omitempty"`
	CompanySize   string         `json:"companySize,omitempty" yaml:"companySize,omitempty"`
	Employees     int            `json:"employees,omitempty" yaml:"employees,omitempty"`
	FoundedYear   int            `json:"foundedYear,omitempty" yaml:"foundedYear,omitempty"`
	AnnualRevenue float64        `json:"annualRevenue,omitempty" yaml:"annualRevenue,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	ManuallyQualified bool `json:"manuallyQualified,omitempty" yaml:"manuallyQualified,omitempty"`

	EmailDomainClass emaildomain.Class `json:"emailDomainClass,omitempty" yaml:"-"`
	Score            float64           `json:"score" yaml:"-"`
	Tier             threshold.Tier    `json:"tier,omitempty" yaml:"-"`
	Qualified        bool              `json:"qualified" yaml:"-"`
}

// MarkQualified records a manual qualification. It is idempotent and there
// is no inverse.
func (l *Lead) MarkQualified() {
	l.ManuallyQualified = true
	l.Qualified = true
}

// Clone returns a copy that shares no maps with l.
func (l Lead) Clone() Lead {
	if l.Attributes != nil {
		attrs := make(map[string]any, len(l.Attributes))
		for k, v := range l.Attributes {
			attrs[k] = v
		}
		l.Attributes = attrs
	}
	return l
}

// Field returns the value of a named field. Built-in field names are matched
// case-insensitively; anything else is looked up in Attributes. Empty strings
// and zero numeric attributes report as absent.
func (l *Lead) Field(name string) (any, bool) {
	if l == nil {
		return nil, false
	}

	switch strings.ToLower(name) {
	case "id":
		return nonEmpty(l.ID)
	case "email":
		return nonEmpty(l.Email)
	case "type":
		return nonEmpty(l.Type)
	case "region":
		return nonEmpty(l.Region)
	case "country":
		return nonEmpty(l.Country)
	case "industry":
		return nonEmpty(l.Industry)
	case "title":
		return nonEmpty(l.Title)
	case "role":
		return nonEmpty(l.Role)
	case "companysize", "company_size":
		return nonEmpty(l.CompanySize)
	case "employees":
		return nonZero(float64(l.Employees))
	case "foundedyear", "founded_year":
		return nonZero(float64(l.FoundedYear))
	case "annualrevenue", "annual_revenue":
		return nonZero(l.AnnualRevenue)
	case "emaildomainclass", "email_domain_class":
		return nonEmpty(string(l.EmailDomainClass))
	case "score":
		return l.Score, true
	case "tier":
		return nonEmpty(string(l.Tier))
	case "qualified":
		return l.Qualified, true
	case "manuallyqualified", "manually_qualified":
		return l.ManuallyQualified, true
	}

	if l.Attributes == nil {
		return nil, false
	}
	v, ok := l.Attributes[name]
	return v, ok
}

// UnknownWhenZero reports whether name is a built-in numeric field whose zero
// value means the figure was not provided.
func UnknownWhenZero(name string) bool {
	switch strings.ToLower(name) {
	case "employees", "foundedyear", "founded_year", "annualrevenue", "annual_revenue":
		return true
	}
	return false
}

func nonEmpty(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}

func nonZero(f float64) (any, bool) {
	if f == 0 {
		return nil, false
	}
	return f, true
}
