// Package query turns free-form list parameters into bounded, owner-scoped
// queries over a whitelisted set of fields.
package query

type FieldKind int

const (
	String FieldKind = iota
	Int
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// Spec declares, for one entity type, what callers may filter and sort on.
// A Spec is never mutated after construction.
type Spec struct {
	// Entity is the table the data-access layer reads from.
	Entity string
	// OwnerField, when set, restricts every query to rows owned by the
	// principal.
	OwnerField string
	// Fields maps each filterable field to its native type.
	Fields          map[string]FieldKind
	Sortable        map[string]bool
	DefaultSort     string
	DefaultDir      Direction
	DefaultPageSize int
	MaxPageSize     int
}

// Filterable reports whether field may appear in a filter token.
func (s Spec) Filterable(field string) (FieldKind, bool) {
	kind, ok := s.Fields[field]
	return kind, ok
}

func (s Spec) maxPageSize() int {
	if s.MaxPageSize > 0 {
		return s.MaxPageSize
	}
	return 100
}

func (s Spec) defaultPageSize() int {
	if s.DefaultPageSize > 0 {
		return s.DefaultPageSize
	}
	return 25
}

// Params are the raw request parameters, one value per key.
type Params map[string]string

// ParamsFromValues keeps the first value of every key.
func ParamsFromValues(values map[string][]string) Params {
	p := make(Params, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			p[k] = vs[0]
		}
	}
	return p
}
