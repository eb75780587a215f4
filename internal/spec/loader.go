package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each fetch of the document by URL.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff between retries.
	BackoffBase time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }

// Load fetches an OpenAPI document from a file path or http(s) URL,
// converts Swagger 2.0 input to v3, and normalizes the result into the
// version-neutral Model. It is called exactly once per process.
func Load(ctx context.Context, source string, opts ...Option) (*Model, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &Error{Code: CodeInvalid, Message: "spec: empty source"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, uerr := url.Parse(source)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	var raw []byte
	var location string
	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return nil, &Error{Code: CodeInvalid, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Source: source}
		}
		location = source
		b, err := fetchWithRetry(ctx, source, settings)
		if err != nil {
			return nil, &Error{Code: CodeUnreachable, Message: fmt.Sprintf("fetch %s: %v", source, err), Source: source, Cause: err}
		}
		raw = b
	} else {
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, &Error{Code: CodeUnreachable, Message: fmt.Sprintf("resolve path: %v", err), Source: source, Cause: err}
		}
		location = abs
		b, err := os.ReadFile(abs)
		if err != nil {
			return nil, &Error{Code: CodeUnreachable, Message: fmt.Sprintf("read file %s: %v", abs, err), Source: abs, Cause: err}
		}
		raw = b
	}

	doc, err := parseDocument(ctx, raw, location, isURL, u, settings)
	if err != nil {
		return nil, err
	}

	model, err := Build(doc, orderFromDocument(raw))
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Source == "" {
			se.Source = location
		}
		return nil, err
	}
	return model, nil
}

// parseDocument detects the declared version and produces a resolved v3
// document, converting Swagger 2.0 input via kin-openapi.
func parseDocument(ctx context.Context, raw []byte, location string, isURL bool, u *url.URL, settings Settings) (*openapi3.T, error) {
	version, err := detectVersion(raw)
	if err != nil {
		return nil, &Error{Code: CodeParse, Message: err.Error(), Source: location, Cause: err}
	}

	switch version {
	case 3:
		loader := newLoader(settings, !isURL)
		var doc *openapi3.T
		if isURL {
			// The bytes are already fetched (with retry); parse them in
			// place of a second fetch, keeping the URI as the base for
			// relative refs.
			doc, err = loader.LoadFromDataWithPath(raw, u)
		} else {
			doc, err = loader.LoadFromFile(location)
		}
		if err != nil {
			return nil, &Error{Code: CodeParse, Message: fmt.Sprintf("parse spec: %v", err), Source: location, Cause: err}
		}
		return doc, nil
	case 2:
		doc, err := convertV2ToV3(raw)
		if err != nil {
			return nil, &Error{Code: CodeInvalid, Message: fmt.Sprintf("convert v2 spec: %v", err), Source: location, Cause: err}
		}
		loader := newLoader(settings, !isURL)
		if err := loader.ResolveRefsIn(doc, nil); err != nil {
			// Unresolvable refs degrade later (per-parameter warnings); the
			// load itself proceeds.
			_ = err
		}
		return doc, nil
	default:
		return nil, &Error{Code: CodeParse, Message: "spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')", Source: location}
	}
}

func newLoader(settings Settings, rootIsFile bool) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	client := &http.Client{Timeout: settings.HTTPTimeout}
	loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
		switch strings.ToLower(uri.Scheme) {
		case "", "file":
			if !rootIsFile {
				return nil, fmt.Errorf("blocked file ref: %s", uri.String())
			}
			path := uri.Path
			if path == "" {
				path = uri.Opaque
			}
			return os.ReadFile(path)
		case "http", "https":
			resp, err := client.Get(uri.String())
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, uri.String())
			}
			return io.ReadAll(resp.Body)
		default:
			return nil, fmt.Errorf("unsupported ref scheme: %s", uri.Scheme)
		}
	}
	return loader
}

// detectVersion returns 3 for OpenAPI 3.x, 2 for Swagger 2.x, else an error.
func detectVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse spec: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	return 0, nil
}

// convertV2ToV3 round-trips the raw bytes through JSON so kin-openapi's
// json-tagged openapi2 types decode YAML input correctly, then converts.
func convertV2ToV3(data []byte) (*openapi3.T, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	jsonBytes, err := json.Marshal(jsonify(generic))
	if err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := json.Unmarshal(jsonBytes, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

// jsonify rewrites any-keyed maps (possible with YAML input) into
// string-keyed ones so the value can be marshaled as JSON.
func jsonify(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonify(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonify(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonify(val)
		}
		return out
	default:
		return v
	}
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err == nil && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		}
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("transient http error %d", resp.StatusCode)
			} else {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}
