package nutrition

import (
	"reflect"
	"testing"
)

func TestReconcile_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		label    *float64
		external *float64
		want     *float64
	}{
		{"zero label filled", Float(0), Float(5), Float(5)},
		{"non-zero label kept", Float(3), Float(5), Float(3)},
		{"missing label filled", nil, Float(5), Float(5)},
		{"missing label takes external zero", nil, Float(0), Float(0)},
		{"zero label kept against zero", Float(0), Float(0), Float(0)},
		{"label kept when external missing", Float(7), nil, Float(7)},
		{"both missing", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(Record{Sugars: tt.label}, Record{Sugars: tt.external})
			if !reflect.DeepEqual(got.Sugars, tt.want) {
				t.Errorf("sugars: got %v, want %v", deref(got.Sugars), deref(tt.want))
			}
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	r := Record{EnergyKcal: Float(250), Sugars: Float(0), Salt: Float(1.2)}

	if got := Reconcile(r, r); !got.Equal(r) {
		t.Errorf("Reconcile(r, r) = %v, want %v", got, r)
	}
}

func TestReconcile_EmptyIsIdentity(t *testing.T) {
	r := Record{Fat: Float(9), Protein: Float(0)}

	if got := Reconcile(r, Record{}); !got.Equal(r) {
		t.Errorf("Reconcile(r, empty) = %v, want %v", got, r)
	}
	if got := Reconcile(Record{}, r); !got.Equal(r) {
		t.Errorf("Reconcile(empty, r) = %v, want %v", got, r)
	}
}

func TestReconcile_DoesNotAlias(t *testing.T) {
	label := Record{Fat: Float(9)}
	external := Record{Salt: Float(1)}

	out := Reconcile(label, external)
	*out.Fat = 100
	*out.Salt = 100

	if *label.Fat != 9 || *external.Salt != 1 {
		t.Error("Reconcile result shares storage with its inputs")
	}
}

func TestReconcileMetadata(t *testing.T) {
	group := 4
	label := Metadata{ProductName: "Label Name", ServingSize: "30 g"}
	external := Metadata{
		ProductName:  "Granola",
		Brand:        "Acme",
		AdditiveTags: []string{"en:e330"},
		NovaGroup:    &group,
	}

	got := ReconcileMetadata(label, external)

	if got.ProductName != "Granola" {
		t.Errorf("ProductName = %q, external should win", got.ProductName)
	}
	if got.ServingSize != "30 g" {
		t.Errorf("ServingSize = %q, label should fill the gap", got.ServingSize)
	}
	if got.Brand != "Acme" || len(got.AdditiveTags) != 1 {
		t.Errorf("external fields not carried: %+v", got)
	}
	if got.NovaGroup == nil || *got.NovaGroup != 4 {
		t.Error("declared NOVA group lost")
	}

	got.AdditiveTags[0] = "changed"
	*got.NovaGroup = 1
	if external.AdditiveTags[0] != "en:e330" || group != 4 {
		t.Error("ReconcileMetadata result shares storage with its inputs")
	}
}

func deref(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
