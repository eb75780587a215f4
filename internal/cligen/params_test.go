package cligen

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"

	"github.com/clify-dev/clify/internal/spec"
)

func bindAndParse(t *testing.T, d *Descriptor, args ...string) (*pflag.FlagSet, []*paramBinding) {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindings := bindParamFlags(flags, d)
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return flags, bindings
}

func queryDescriptor(params ...spec.Param) *Descriptor {
	op := &spec.Operation{OperationID: "op", Method: "GET", Path: "/x", Params: params}
	return &Descriptor{Name: "op", Op: op, Flags: synthesizeFlags(op)}
}

func TestCollectValuesCoercion(t *testing.T) {
	d := queryDescriptor(
		spec.Param{Name: "limit", In: "query", Type: spec.TypeInteger},
		spec.Param{Name: "ratio", In: "query", Type: spec.TypeNumber},
		spec.Param{Name: "active", In: "query", Type: spec.TypeBoolean},
	)
	flags, bindings := bindAndParse(t, d, "--limit", "10", "--ratio", "0.5", "--active", "TRUE")
	values, err := collectValues(flags, bindings)
	if err != nil {
		t.Fatalf("collectValues: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %+v", values)
	}
	if values[2].values[0] != "true" {
		t.Fatalf("boolean should canonicalize to lowercase, got %q", values[2].values[0])
	}
}

func TestCollectValuesTypeError(t *testing.T) {
	d := queryDescriptor(spec.Param{Name: "limit", In: "query", Type: spec.TypeInteger})
	flags, bindings := bindAndParse(t, d, "--limit", "abc")
	_, err := collectValues(flags, bindings)
	var te *FlagTypeError
	if !errors.As(err, &te) {
		t.Fatalf("expected FlagTypeError, got %v", err)
	}
	if te.Flag != "limit" || te.Want != "integer" {
		t.Fatalf("error should name flag and type: %+v", te)
	}
	if te.ExitCode() != 2 {
		t.Fatalf("exit code = %d", te.ExitCode())
	}
}

func TestCollectValuesMissingRequired(t *testing.T) {
	d := queryDescriptor(spec.Param{Name: "id", In: "query", Required: true, Type: spec.TypeString})
	flags, bindings := bindAndParse(t, d)
	_, err := collectValues(flags, bindings)
	var me *MissingFlagError
	if !errors.As(err, &me) {
		t.Fatalf("expected MissingFlagError, got %v", err)
	}
	if me.Flag != "id" {
		t.Fatalf("error should name the flag: %+v", me)
	}
}

func TestCollectValuesDefaultSatisfiesRequired(t *testing.T) {
	d := queryDescriptor(spec.Param{Name: "limit", In: "query", Required: true, Type: spec.TypeInteger, Default: 20})
	flags, bindings := bindAndParse(t, d)
	values, err := collectValues(flags, bindings)
	if err != nil {
		t.Fatalf("collectValues: %v", err)
	}
	if len(values) != 1 || values[0].values[0] != "20" {
		t.Fatalf("default should be transmitted: %+v", values)
	}
}

func TestCollectValuesUnsetOptionalOmitted(t *testing.T) {
	d := queryDescriptor(spec.Param{Name: "q", In: "query", Type: spec.TypeString})
	flags, bindings := bindAndParse(t, d)
	values, err := collectValues(flags, bindings)
	if err != nil {
		t.Fatalf("collectValues: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("unset optional params must not be transmitted: %+v", values)
	}
}

func TestCollectValuesArray(t *testing.T) {
	d := queryDescriptor(spec.Param{Name: "ids", In: "query", Type: spec.TypeArray, Elem: spec.TypeInteger})
	flags, bindings := bindAndParse(t, d, "--ids", "1", "--ids", "2")
	values, err := collectValues(flags, bindings)
	if err != nil {
		t.Fatalf("collectValues: %v", err)
	}
	if len(values) != 1 || len(values[0].values) != 2 {
		t.Fatalf("expected both repetitions: %+v", values)
	}

	flags, bindings = bindAndParse(t, d, "--ids", "1", "--ids", "x")
	if _, err := collectValues(flags, bindings); err == nil {
		t.Fatal("expected element coercion failure")
	}
}

func TestCollectValuesArrayDefault(t *testing.T) {
	d := queryDescriptor(spec.Param{
		Name: "ids", In: "query",
		Type: spec.TypeArray, Elem: spec.TypeInteger,
		Default: []any{1, 2},
	})

	// Unset: the schema default goes on the wire, one value per element.
	flags, bindings := bindAndParse(t, d)
	values, err := collectValues(flags, bindings)
	if err != nil {
		t.Fatalf("collectValues: %v", err)
	}
	if len(values) != 1 || len(values[0].values) != 2 {
		t.Fatalf("array default not transmitted: %+v", values)
	}
	if values[0].values[0] != "1" || values[0].values[1] != "2" {
		t.Fatalf("array default values: %+v", values[0].values)
	}

	// Explicit values replace the default, not append to it.
	flags, bindings = bindAndParse(t, d, "--ids", "9")
	values, err = collectValues(flags, bindings)
	if err != nil {
		t.Fatalf("collectValues: %v", err)
	}
	if len(values) != 1 || len(values[0].values) != 1 || values[0].values[0] != "9" {
		t.Fatalf("explicit value should replace the default: %+v", values)
	}
}
