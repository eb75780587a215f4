package httpclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/clify-dev/clify/internal/spec"
)

// Auth holds the credentials collected from global flags and environment
// variables. It is constructed once at process start and never mutated;
// the OAuth2 token source it lazily creates caches the obtained token for
// the remaining lifetime of the invocation, never on disk.
type Auth struct {
	Username string
	Password string
	Token    string
	APIKey   string

	ClientID     string
	ClientSecret string
	// TokenURL overrides the token endpoint declared by the document's
	// oauth2 security scheme.
	TokenURL string

	mu sync.Mutex
	ts oauth2.TokenSource
}

// Configured reports whether any credential was supplied.
func (a *Auth) Configured() bool {
	return a != nil && (a.Username != "" || a.Token != "" || a.APIKey != "" || a.ClientID != "")
}

// Apply sets credential headers on req. Header placement happens before
// explicit header parameters so that an explicit flag wins on collision.
func (a *Auth) Apply(ctx context.Context, req *http.Request, schemes map[string]spec.SecurityScheme) error {
	if a == nil {
		return nil
	}

	switch {
	case a.Username != "" && a.Password != "":
		req.SetBasicAuth(a.Username, a.Password)
	case a.ClientID != "" && a.ClientSecret != "":
		tok, err := a.clientCredentialsToken(ctx, schemes)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	case a.Token != "":
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	if a.APIKey != "" {
		name, in := apiKeyPlacement(schemes)
		if in == "header" {
			req.Header.Set(name, a.APIKey)
		}
	}
	return nil
}

// QueryPairs returns credential query parameters (apiKey schemes with
// in=query). The request builder appends them after declared parameters.
func (a *Auth) QueryPairs(schemes map[string]spec.SecurityScheme) [][2]string {
	if a == nil || a.APIKey == "" {
		return nil
	}
	name, in := apiKeyPlacement(schemes)
	if in != "query" {
		return nil
	}
	return [][2]string{{name, a.APIKey}}
}

// apiKeyPlacement resolves where an API key goes. When the document does
// not declare an apiKey scheme the key falls back to the X-API-Key header.
func apiKeyPlacement(schemes map[string]spec.SecurityScheme) (name, in string) {
	// Scheme map iteration order is irrelevant here: documents with more
	// than one apiKey scheme are resolved by sorted name for determinism.
	var names []string
	for n, s := range schemes {
		if s.Type == "apiKey" && s.ParamName != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "X-API-Key", "header"
	}
	best := names[0]
	for _, n := range names[1:] {
		if n < best {
			best = n
		}
	}
	s := schemes[best]
	if s.In == "query" {
		return s.ParamName, "query"
	}
	return s.ParamName, "header"
}

func (a *Auth) clientCredentialsToken(ctx context.Context, schemes map[string]spec.SecurityScheme) (string, error) {
	a.mu.Lock()
	if a.ts == nil {
		tokenURL := a.TokenURL
		if tokenURL == "" {
			for _, s := range schemes {
				if s.Type == "oauth2" && s.TokenURL != "" {
					tokenURL = s.TokenURL
					break
				}
			}
		}
		if tokenURL == "" {
			a.mu.Unlock()
			return "", &AuthError{Err: errors.New("no token URL: pass --token-url or declare an oauth2 clientCredentials flow in the spec")}
		}
		cfg := &clientcredentials.Config{
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			TokenURL:     tokenURL,
		}
		a.ts = cfg.TokenSource(context.WithoutCancel(ctx))
	}
	ts := a.ts
	a.mu.Unlock()

	tok, err := ts.Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return "", &AuthError{Status: rerr.Response.StatusCode, Err: err}
		}
		return "", &AuthError{Err: err}
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return "", &AuthError{Err: errors.New("token endpoint returned an empty access token")}
	}
	return tok.AccessToken, nil
}
