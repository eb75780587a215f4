package cligen

import (
	"testing"

	"github.com/clify-dev/clify/internal/spec"
)

func testModel() *spec.Model {
	return &spec.Model{
		Operations: []spec.Operation{
			{OperationID: "getUser", Method: "GET", Path: "/users/{id}",
				Params: []spec.Param{
					{Name: "id", In: "path", Required: true, Type: spec.TypeString},
					{Name: "verbose", In: "query", Type: spec.TypeBoolean},
				}},
			{OperationID: "get_user", Method: "GET", Path: "/legacy/users/{id}",
				Params: []spec.Param{
					{Name: "id", In: "path", Required: true, Type: spec.TypeString},
				}},
			{OperationID: "createUser", Method: "POST", Path: "/users",
				Params: []spec.Param{
					{Name: "data", In: "query", Type: spec.TypeString},
				},
				Body: &spec.Body{Required: true, ContentTypes: []string{"application/json"}}},
		},
	}
}

func TestSynthesizeCollisionSuffix(t *testing.T) {
	descs := Synthesize(testModel())
	if len(descs) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(descs))
	}
	// getUser and get_user both kebab to get-user; the later one in
	// document order gets the suffix.
	if descs[0].Name != "get-user" || descs[1].Name != "get-user-2" {
		t.Fatalf("collision not suffixed: %q, %q", descs[0].Name, descs[1].Name)
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	m := testModel()
	first := Synthesize(m)
	second := Synthesize(m)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Name != second[i].Name {
			t.Fatalf("name %d differs: %q vs %q", i, first[i].Name, second[i].Name)
		}
		if len(first[i].Flags) != len(second[i].Flags) {
			t.Fatalf("flag counts differ for %q", first[i].Name)
		}
		for j := range first[i].Flags {
			if first[i].Flags[j].Name != second[i].Flags[j].Name {
				t.Fatalf("flag %d of %q differs: %q vs %q", j, first[i].Name, first[i].Flags[j].Name, second[i].Flags[j].Name)
			}
		}
	}
}

func TestSynthesizeReservedDataFlag(t *testing.T) {
	descs := Synthesize(testModel())
	create := descs[2]
	if create.Name != "create-user" {
		t.Fatalf("unexpected name: %q", create.Name)
	}
	// The query parameter literally named "data" must not shadow --data.
	if len(create.Flags) != 1 || create.Flags[0].Name != "data-2" {
		t.Fatalf("reserved flag collision not resolved: %+v", create.Flags)
	}
}

func TestTableResolve(t *testing.T) {
	table := NewTable(testModel())
	d, ok := table.Resolve("get-user-2")
	if !ok {
		t.Fatal("expected get-user-2 in table")
	}
	if d.Op.OperationID != "get_user" {
		t.Fatalf("resolved wrong operation: %+v", d.Op)
	}
	if _, ok := table.Resolve("nope"); ok {
		t.Fatal("unexpected resolution")
	}
	if len(table.All()) != 3 {
		t.Fatalf("All() = %d entries", len(table.All()))
	}
}
