package cligen

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/clify-dev/clify/internal/httpclient"
	"github.com/clify-dev/clify/internal/spec"
)

func fd(name, in string) FlagDescriptor {
	return FlagDescriptor{Name: name, Param: spec.Param{Name: name, In: in, Type: spec.TypeString}}
}

func pv(name, in string, values ...string) paramValue {
	return paramValue{desc: fd(name, in), values: values}
}

func testRuntime(servers ...string) *Runtime {
	m := &spec.Model{}
	for _, s := range servers {
		m.Servers = append(m.Servers, spec.Server{URL: s})
	}
	return &Runtime{Model: m}
}

func TestBuildRequestPathExpansion(t *testing.T) {
	rt := testRuntime("https://api.example.com/v1")
	op := &spec.Operation{Method: "GET", Path: "/users/{id}/pets/{petId}"}
	req, err := BuildRequest(context.Background(), rt, op, []paramValue{
		pv("id", "path", "42"),
		pv("petId", "path", "a/b"),
	}, nil, "")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	want := "https://api.example.com/v1/users/42/pets/a%2Fb"
	if req.URL.String() != want {
		t.Fatalf("url = %q, want %q", req.URL.String(), want)
	}
}

func TestBuildRequestUnresolvedPlaceholder(t *testing.T) {
	rt := testRuntime("https://api.example.com")
	op := &spec.Operation{Method: "GET", Path: "/users/{id}"}
	if _, err := BuildRequest(context.Background(), rt, op, nil, nil, ""); err == nil {
		t.Fatal("expected unresolved placeholder error")
	}
}

func TestBuildRequestQueryOrder(t *testing.T) {
	rt := testRuntime("https://api.example.com")
	op := &spec.Operation{Method: "GET", Path: "/search"}
	req, err := BuildRequest(context.Background(), rt, op, []paramValue{
		pv("z", "query", "1"),
		pv("tag", "query", "a", "b"),
		pv("a", "query", "x y"),
	}, nil, "")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	// Declaration order, not sorted; repeats preserved; values escaped.
	want := "z=1&tag=a&tag=b&a=x+y"
	if req.URL.RawQuery != want {
		t.Fatalf("query = %q, want %q", req.URL.RawQuery, want)
	}
}

func TestBuildRequestAPIKeyQueryAppendedLast(t *testing.T) {
	rt := testRuntime("https://api.example.com")
	rt.Model.Security = map[string]spec.SecurityScheme{
		"keyAuth": {Type: "apiKey", ParamName: "api_key", In: "query"},
	}
	rt.Auth = &httpclient.Auth{APIKey: "sek"}
	op := &spec.Operation{Method: "GET", Path: "/search"}
	req, err := BuildRequest(context.Background(), rt, op, []paramValue{
		pv("q", "query", "cats"),
	}, nil, "")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	want := "q=cats&api_key=sek"
	if req.URL.RawQuery != want {
		t.Fatalf("query = %q, want %q", req.URL.RawQuery, want)
	}
}

func TestBuildRequestHeadersAndCookies(t *testing.T) {
	rt := testRuntime("https://api.example.com")
	rt.Auth = &httpclient.Auth{Token: "tkn"}
	op := &spec.Operation{Method: "GET", Path: "/x"}
	req, err := BuildRequest(context.Background(), rt, op, []paramValue{
		pv("X-Tenant", "header", "acme"),
		pv("session", "cookie", "s1"),
		pv("pref", "cookie", "dark"),
		pv("Authorization", "header", "custom"),
	}, nil, "")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if got := req.Header.Get("X-Tenant"); got != "acme" {
		t.Fatalf("X-Tenant = %q", got)
	}
	if got := req.Header.Get("Cookie"); got != "session=s1; pref=dark" {
		t.Fatalf("Cookie = %q", got)
	}
	// An explicit header parameter wins over injected credentials.
	if got := req.Header.Get("Authorization"); got != "custom" {
		t.Fatalf("Authorization = %q", got)
	}
}

func TestBuildRequestBody(t *testing.T) {
	rt := testRuntime("https://api.example.com")
	op := &spec.Operation{Method: "POST", Path: "/things"}
	payload := []byte(`{"a":1}`)
	req, err := BuildRequest(context.Background(), rt, op, nil, payload, "application/json")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("Content-Type = %q", req.Header.Get("Content-Type"))
	}
	if req.GetBody == nil {
		t.Fatal("GetBody must be set for retry replay")
	}
	rc, err := req.GetBody()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != `{"a":1}` {
		t.Fatalf("replayed body = %q", b)
	}
}

func TestBuildRequestServerResolution(t *testing.T) {
	op := &spec.Operation{Method: "GET", Path: "/x"}

	rt := testRuntime()
	_, err := BuildRequest(context.Background(), rt, op, nil, nil, "")
	var nse *NoServerError
	if !errors.As(err, &nse) {
		t.Fatalf("expected NoServerError, got %v", err)
	}
	if nse.ExitCode() != 4 {
		t.Fatalf("exit code = %d", nse.ExitCode())
	}

	rt = testRuntime("https://declared.example.com/")
	rt.Server = "https://override.example.com"
	req, err := BuildRequest(context.Background(), rt, op, nil, nil, "")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.URL.Host != "override.example.com" {
		t.Fatalf("override lost: %q", req.URL.String())
	}

	rt.Server = ""
	req, err = BuildRequest(context.Background(), rt, op, nil, nil, "")
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	// Trailing slash on the declared server must not double up.
	if req.URL.String() != "https://declared.example.com/x" {
		t.Fatalf("url = %q", req.URL.String())
	}
}
