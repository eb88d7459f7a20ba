package lease

import (
	"github.com/theunits/units/internal/provider/bluemoon"
)

const (
	formTypeStandard = "standard"
	formTypeCustom   = "custom"
)

// MapForms splits the selected form names by the type the provider lists
// them under. Names the provider does not list are dropped; selection order
// is kept.
func MapForms(selected []string, available []bluemoon.LeaseForm) bluemoon.Forms {
	types := make(map[string]map[string]bool, 2)
	for _, f := range available {
		if types[f.Type] == nil {
			types[f.Type] = make(map[string]bool)
		}
		types[f.Type][f.Name] = true
	}

	out := bluemoon.Forms{StandardForms: []string{}, CustomForms: []string{}}
	for _, name := range selected {
		if types[formTypeStandard][name] {
			out.StandardForms = append(out.StandardForms, name)
		}
		if types[formTypeCustom][name] {
			out.CustomForms = append(out.CustomForms, name)
		}
	}
	return out
}
