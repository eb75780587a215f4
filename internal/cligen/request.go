package cligen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/clify-dev/clify/internal/spec"
)

// resolveServer picks the request base URL: an explicit --server
// override wins, otherwise the first server the document declares.
func resolveServer(rt *Runtime) (string, error) {
	if rt.Server != "" {
		return rt.Server, nil
	}
	if len(rt.Model.Servers) > 0 {
		return rt.Model.Servers[0].URL, nil
	}
	return "", &NoServerError{}
}

// BuildRequest assembles the HTTP request for op from the coerced flag
// values and optional payload. Query parameters are encoded in flag
// declaration order, with credential query pairs appended last.
func BuildRequest(ctx context.Context, rt *Runtime, op *spec.Operation, values []paramValue, payload []byte, contentType string) (*http.Request, error) {
	base, err := resolveServer(rt)
	if err != nil {
		return nil, err
	}

	path := op.Path
	var query, headers, cookies []paramValue
	for _, pv := range values {
		switch pv.desc.Param.In {
		case "path":
			path = strings.ReplaceAll(path, "{"+pv.desc.Param.Name+"}", url.PathEscape(pv.values[0]))
		case "query":
			query = append(query, pv)
		case "header":
			headers = append(headers, pv)
		case "cookie":
			cookies = append(cookies, pv)
		}
	}
	if i := strings.IndexByte(path, '{'); i >= 0 {
		return nil, fmt.Errorf("unresolved path template %q", op.Path)
	}

	endpoint := strings.TrimRight(base, "/") + path
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", endpoint, err)
	}
	u.RawQuery = encodeQuery(query, rt.authQueryPairs())

	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, op.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if len(payload) > 0 {
		req.ContentLength = int64(len(payload))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
	}

	if rt.Auth != nil {
		if err := rt.Auth.Apply(ctx, req, rt.Model.Security); err != nil {
			return nil, err
		}
	}
	for _, pv := range headers {
		req.Header.Del(pv.desc.Param.Name)
		for _, v := range pv.values {
			req.Header.Add(pv.desc.Param.Name, v)
		}
	}
	if len(cookies) > 0 {
		pairs := make([]string, 0, len(cookies))
		for _, pv := range cookies {
			for _, v := range pv.values {
				pairs = append(pairs, pv.desc.Param.Name+"="+v)
			}
		}
		req.Header.Set("Cookie", strings.Join(pairs, "; "))
	}
	return req, nil
}

func (rt *Runtime) authQueryPairs() [][2]string {
	if rt.Auth == nil {
		return nil
	}
	return rt.Auth.QueryPairs(rt.Model.Security)
}

// encodeQuery renders query parameters preserving their declaration
// order; url.Values would sort them.
func encodeQuery(query []paramValue, extra [][2]string) string {
	var sb strings.Builder
	add := func(k, v string) {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(v))
	}
	for _, pv := range query {
		for _, v := range pv.values {
			add(pv.desc.Param.Name, v)
		}
	}
	for _, kv := range extra {
		add(kv[0], kv[1])
	}
	return sb.String()
}
