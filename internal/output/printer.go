package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"
)

type Options struct {
	// ForcePretty/ForceCompact override the TTY auto-detection.
	ForcePretty  bool
	ForceCompact bool

	PrintStatus  bool
	PrintHeaders bool
}

// Printer is the boundary to the rendering layer: it receives status,
// headers, and the raw body and writes the body to stdout (JSON indented
// when pretty) with status/headers optionally on stderr.
type Printer struct {
	out io.Writer
	err io.Writer

	pretty       bool
	printStatus  bool
	printHeaders bool
}

func NewPrinter(out, errw io.Writer, opts Options) *Printer {
	pretty := false
	switch {
	case opts.ForcePretty:
		pretty = true
	case opts.ForceCompact:
		pretty = false
	default:
		if f, ok := out.(*os.File); ok {
			pretty = term.IsTerminal(int(f.Fd()))
		}
	}
	return &Printer{
		out:          out,
		err:          errw,
		pretty:       pretty,
		printStatus:  opts.PrintStatus,
		printHeaders: opts.PrintHeaders,
	}
}

func (p *Printer) Out() io.Writer { return p.out }
func (p *Printer) Err() io.Writer { return p.err }

// PrintResponse renders a successful (2xx/3xx) response.
func (p *Printer) PrintResponse(status int, headers http.Header, body []byte) error {
	if p.printStatus {
		if _, err := fmt.Fprintf(p.err, "%d\n", status); err != nil {
			return err
		}
	}
	if p.printHeaders {
		p.writeHeaders(headers)
	}
	return p.writeBody(p.out, body)
}

// PrintErrorResponse renders a non-2xx response on stderr. A status line
// is always printed for errors regardless of options.
func (p *Printer) PrintErrorResponse(status int, headers http.Header, body []byte) error {
	text := http.StatusText(status)
	if text != "" {
		fmt.Fprintf(p.err, "HTTP %d %s\n", status, text)
	} else {
		fmt.Fprintf(p.err, "HTTP %d\n", status)
	}
	if p.printHeaders {
		p.writeHeaders(headers)
	}
	return p.writeBody(p.err, body)
}

func (p *Printer) writeHeaders(headers http.Header) {
	for k, vv := range headers {
		v := strings.Join(vv, ", ")
		switch strings.ToLower(k) {
		case "authorization", "proxy-authorization", "set-cookie":
			v = "<redacted>"
		}
		fmt.Fprintf(p.err, "%s: %s\n", k, v)
	}
}

func (p *Printer) writeBody(w io.Writer, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	out := body
	if p.pretty && json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	if out[len(out)-1] != '\n' {
		_, _ = w.Write([]byte("\n"))
	}
	return nil
}
