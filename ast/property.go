package ast

// PropertyValue is the value half of a WITH-clause assignment: exactly one
// of Integer, Float, or String is meaningful, selected by Kind.
type PropertyValue struct {
	Kind   PropertyKind
	Int    int32
	Float  float32
	String string
}

// PropertyKind tags which field of a PropertyValue is populated.
type PropertyKind int

const (
	PropertyInteger PropertyKind = iota
	PropertyFloat
	PropertyStringKind
)

// Property is a single `name = value` pair from a WITH-clause.
type Property struct {
	Name  string
	Value PropertyValue
}

// PropertyList is an ordered sequence of Properties, preserving the order
// they were written in.
type PropertyList []Property

// Find returns the first property with the given name, if any.
func (l PropertyList) Find(name string) (Property, bool) {
	for _, p := range l {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}
