package cligen

import (
	"testing"

	"github.com/clify-dev/clify/internal/spec"
)

func TestKebabCase(t *testing.T) {
	cases := []struct{ in, want string }{
		{"getUser", "get-user"},
		{"getUserByID", "get-user-by-id"},
		{"ListPets", "list-pets"},
		{"create_user", "create-user"},
		{"HTTPProxy", "httpproxy"},
		{"v2ListItems", "v2-list-items"},
		{"already-kebab", "already-kebab"},
		{"  spaced out  ", "spaced-out"},
		{"__", ""},
	}
	for _, tc := range cases {
		if got := kebabCase(tc.in); got != tc.want {
			t.Errorf("kebabCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCommandName(t *testing.T) {
	cases := []struct {
		op   spec.Operation
		want string
	}{
		{spec.Operation{OperationID: "getUser", Method: "GET", Path: "/users/{id}"}, "get-user"},
		{spec.Operation{Method: "GET", Path: "/users/{id}"}, "get-users-id"},
		{spec.Operation{Method: "DELETE", Path: "/users/{id}"}, "delete-users-id"},
		{spec.Operation{Method: "POST", Path: "/users"}, "post-users"},
		{spec.Operation{OperationID: "___", Method: "GET", Path: "/pets"}, "get-pets"},
	}
	for _, tc := range cases {
		if got := commandName(&tc.op); got != tc.want {
			t.Errorf("commandName(%q %s %s) = %q, want %q", tc.op.OperationID, tc.op.Method, tc.op.Path, got, tc.want)
		}
	}
}
