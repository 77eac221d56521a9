package rules

// ValueKind is the shape of value a criterion accepts.
type ValueKind string

// Supported value kinds (string values for clean JSON/YAML serialization).
const (
	KindChoice      ValueKind = "choice"
	KindMultiChoice ValueKind = "multi_choice"
	KindRange       ValueKind = "range"
	KindText        ValueKind = "text"
)

// Combinator joins a condition to the conditions before it in the same criterion.
type Combinator string

const (
	CombinatorNone Combinator = ""
	CombinatorAnd  Combinator = "and"
	CombinatorOr   Combinator = "or"
)

// RangeOp is the comparison applied by a range condition.
type RangeOp string

const (
	RangeBetween     RangeOp = "between"
	RangeGreaterThan RangeOp = "greater_than"
	RangeLessThan    RangeOp = "less_than"
)

// Weight bounds for a single condition.
const (
	MinWeight = 1
	MaxWeight = 10
)

// Criterion is a scorable lead attribute. Criteria are immutable once they
// are registered in the catalog.
type Criterion struct {
	ID      string    `json:"id" yaml:"id"`
	Label   string    `json:"label" yaml:"label"`
	Kind    ValueKind `json:"kind" yaml:"kind"`
	Options []string  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Value is the literal a condition compares against. The set of
// implementations is closed: ChoiceValue, MultiChoiceValue, RangeValue and
// TextValue.
type Value interface {
	Kind() ValueKind
	isValue()
}

// ChoiceValue matches a single enumerated option exactly.
type ChoiceValue string

// MultiChoiceValue matches when the lead value is one of the selected options.
type MultiChoiceValue []string

// RangeValue bounds a numeric lead attribute.
// Between uses Min and Max inclusively, GreaterThan uses Min, LessThan uses Max.
type RangeValue struct {
	Op  RangeOp `json:"op" yaml:"op"`
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// TextValue matches free text case-insensitively and exactly.
type TextValue string

func (ChoiceValue) Kind() ValueKind      { return KindChoice }
func (MultiChoiceValue) Kind() ValueKind { return KindMultiChoice }
func (RangeValue) Kind() ValueKind       { return KindRange }
func (TextValue) Kind() ValueKind        { return KindText }

func (ChoiceValue) isValue()      {}
func (MultiChoiceValue) isValue() {}
func (RangeValue) isValue()       {}
func (TextValue) isValue()        {}

// Contains reports whether v is one of the selected options.
func (m MultiChoiceValue) Contains(v string) bool {
	for _, opt := range m {
		if opt == v {
			return true
		}
	}
	return false
}

// Condition is one concrete test within a criterion.
// The combinator of the first condition is ignored; later conditions fold
// left to right onto the result of everything before them.
type Condition struct {
	ID         string     `json:"id"`
	Value      Value      `json:"value"`
	Weight     int        `json:"weight"`
	Combinator Combinator `json:"combinator,omitempty"`
}

// CriterionRule is a criterion together with its ordered conditions.
type CriterionRule struct {
	Criterion  Criterion   `json:"criterion"`
	Conditions []Condition `json:"conditions"`
}

// MaxConditionWeight returns the highest weight among the conditions, or 0.
func (cr CriterionRule) MaxConditionWeight() int {
	best := 0
	for _, c := range cr.Conditions {
		if c.Weight > best {
			best = c.Weight
		}
	}
	return best
}
