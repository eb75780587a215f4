package output

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
)

func TestPrintResponseCompact(t *testing.T) {
	var out, errw bytes.Buffer
	p := NewPrinter(&out, &errw, Options{ForceCompact: true})
	if err := p.PrintResponse(200, nil, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("PrintResponse: %v", err)
	}
	if out.String() != "{\"a\":1}\n" {
		t.Fatalf("out = %q", out.String())
	}
	if errw.Len() != 0 {
		t.Fatalf("unexpected stderr: %q", errw.String())
	}
}

func TestPrintResponsePretty(t *testing.T) {
	var out, errw bytes.Buffer
	p := NewPrinter(&out, &errw, Options{ForcePretty: true})
	if err := p.PrintResponse(200, nil, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("PrintResponse: %v", err)
	}
	want := "{\n  \"a\": 1\n}\n"
	if out.String() != want {
		t.Fatalf("out = %q, want %q", out.String(), want)
	}
}

func TestPrintResponseNonJSONPassthrough(t *testing.T) {
	var out, errw bytes.Buffer
	p := NewPrinter(&out, &errw, Options{ForcePretty: true})
	if err := p.PrintResponse(200, nil, []byte("plain text")); err != nil {
		t.Fatalf("PrintResponse: %v", err)
	}
	if out.String() != "plain text\n" {
		t.Fatalf("out = %q", out.String())
	}
}

func TestPrintResponseStatusAndHeaders(t *testing.T) {
	var out, errw bytes.Buffer
	p := NewPrinter(&out, &errw, Options{ForceCompact: true, PrintStatus: true, PrintHeaders: true})
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Set-Cookie", "session=abc")
	if err := p.PrintResponse(201, h, []byte(`{}`)); err != nil {
		t.Fatalf("PrintResponse: %v", err)
	}
	if !strings.HasPrefix(errw.String(), "201\n") {
		t.Fatalf("missing status line: %q", errw.String())
	}
	if strings.Contains(errw.String(), "session=abc") {
		t.Fatalf("Set-Cookie leaked: %q", errw.String())
	}
	if !strings.Contains(errw.String(), "Content-Type: application/json") {
		t.Fatalf("missing header line: %q", errw.String())
	}
	if out.String() != "{}\n" {
		t.Fatalf("out = %q", out.String())
	}
}

func TestPrintErrorResponse(t *testing.T) {
	var out, errw bytes.Buffer
	p := NewPrinter(&out, &errw, Options{ForceCompact: true})
	if err := p.PrintErrorResponse(404, nil, []byte(`{"error":"not found"}`)); err != nil {
		t.Fatalf("PrintErrorResponse: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("error responses must not write stdout: %q", out.String())
	}
	if !strings.HasPrefix(errw.String(), "HTTP 404 Not Found\n") {
		t.Fatalf("missing status line: %q", errw.String())
	}
	if !strings.Contains(errw.String(), `{"error":"not found"}`) {
		t.Fatalf("missing body: %q", errw.String())
	}
}

func TestPrintResponseEmptyBody(t *testing.T) {
	var out, errw bytes.Buffer
	p := NewPrinter(&out, &errw, Options{ForceCompact: true})
	if err := p.PrintResponse(204, nil, nil); err != nil {
		t.Fatalf("PrintResponse: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("out = %q", out.String())
	}
}
