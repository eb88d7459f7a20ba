package lease

import (
	"reflect"
	"testing"

	"github.com/theunits/units/internal/provider/bluemoon"
)

func TestMapForms(t *testing.T) {
	available := []bluemoon.LeaseForm{
		{Name: "lease", Type: "standard"},
		{Name: "pets", Type: "standard"},
		{Name: "parking", Type: "custom"},
		{Name: "storage", Type: "addendum"},
	}

	tests := []struct {
		name     string
		selected []string
		want     bluemoon.Forms
	}{
		{
			name:     "split by type in selection order",
			selected: []string{"pets", "parking", "lease"},
			want:     bluemoon.Forms{StandardForms: []string{"pets", "lease"}, CustomForms: []string{"parking"}},
		},
		{
			name:     "unknown and untyped names dropped",
			selected: []string{"nope", "storage"},
			want:     bluemoon.Forms{StandardForms: []string{}, CustomForms: []string{}},
		},
		{
			name:     "nothing selected",
			selected: nil,
			want:     bluemoon.Forms{StandardForms: []string{}, CustomForms: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapForms(tt.selected, available)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MapForms() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
