package models

// Well-known plan node attribute names.
const (
	AttrNodeType     = "Node Type"
	AttrPlans        = "Plans"
	AttrParentNodeID = "Parent Node Id"
	AttrPlanRows     = "Plan Rows"
	AttrPlanWidth    = "Plan Width"
	AttrRelationName = "Relation Name"
	AttrAlias        = "Alias"
	AttrFilter       = "Filter"
	AttrIndexName    = "Index Name"
	AttrIndexCond    = "Index Cond"
	AttrRecheckCond  = "Recheck Cond"
	AttrFunctionName = "Function Name"
)

// Attribute is one named value of a plan node.
type Attribute struct {
	Name  string
	Value Value
}

// Attributes is an ordered attribute mapping. Order follows the source document.
type Attributes []Attribute

// Get returns the value stored under name.
func (a Attributes) Get(name string) (Value, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return Value{}, false
}

// Text returns the rendered value stored under name, or "" if absent.
func (a Attributes) Text(name string) string {
	if v, ok := a.Get(name); ok {
		return v.String()
	}
	return ""
}

// Has reports whether name is present.
func (a Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Without returns a copy of a with every attribute in names removed.
func (a Attributes) Without(names ...string) Attributes {
	out := make(Attributes, 0, len(a))
	for _, attr := range a {
		skip := false
		for _, n := range names {
			if attr.Name == n {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, attr)
		}
	}
	return out
}

// Set replaces the value under name, or appends it when absent.
func (a Attributes) Set(name string, v Value) Attributes {
	for i := range a {
		if a[i].Name == name {
			a[i].Value = v
			return a
		}
	}
	return append(a, Attribute{Name: name, Value: v})
}

// Names returns attribute names in order.
func (a Attributes) Names() []string {
	names := make([]string, len(a))
	for i, attr := range a {
		names[i] = attr.Name
	}
	return names
}
