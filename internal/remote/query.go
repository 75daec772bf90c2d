package remote

// Operator is a query condition operator.
type Operator string

const (
	OpEq Operator = "eq"
	OpIn Operator = "in"
	OpGe Operator = "ge"
	OpLe Operator = "le"
)

// Condition restricts a query on one attribute. All conditions of a query
// must hold.
type Condition struct {
	Attribute string
	Operator  Operator
	Values    []any
}

func Eq(attr string, v any) Condition { return Condition{Attribute: attr, Operator: OpEq, Values: []any{v}} }
func Ge(attr string, v any) Condition { return Condition{Attribute: attr, Operator: OpGe, Values: []any{v}} }
func Le(attr string, v any) Condition { return Condition{Attribute: attr, Operator: OpLe, Values: []any{v}} }

// In matches records whose attribute equals any of vals.
func In[T any](attr string, vals ...T) Condition {
	values := make([]any, len(vals))
	for i, v := range vals {
		values[i] = v
	}
	return Condition{Attribute: attr, Operator: OpIn, Values: values}
}

// Order sorts query results on one attribute.
type Order struct {
	Attribute  string
	Descending bool
}

// Link joins a many-to-one related record into each result. The related
// record is the one in Table whose To attribute equals the result's From
// attribute; its Columns are merged into the result as "Alias.column".
// From may name an attribute merged by an earlier link ("alias.column").
type Link struct {
	From    string
	Table   string
	To      string
	Alias   string
	Columns []string
}

// Query is a structured retrieve. Empty Columns returns every attribute;
// Top <= 0 returns every match.
type Query struct {
	Table      string
	Columns    []string
	Conditions []Condition
	Orders     []Order
	Top        int
	Links      []Link
}
