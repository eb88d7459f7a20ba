package query

type Sort struct {
	Field     string
	Direction Direction
}

// ResolveSort reads order_by and order_dir, replacing each independently
// with the spec default when absent or not allowed.
func ResolveSort(spec Spec, params Params) Sort {
	s := Sort{Field: spec.DefaultSort, Direction: spec.DefaultDir}

	if field, ok := params["order_by"]; ok && spec.Sortable[field] {
		s.Field = field
	}
	if dir, ok := params["order_dir"]; ok && Direction(dir).Valid() {
		s.Direction = Direction(dir)
	}
	if !s.Direction.Valid() {
		s.Direction = Asc
	}
	return s
}
