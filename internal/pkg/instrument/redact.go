package instrument

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Masked replaces every redacted value.
const Masked = "***"

// MaxLoggedBody caps how much of a payload is decoded or echoed into logs.
const MaxLoggedBody = 32 * 1024

// secretKeys are redacted even when the configuration does not list them.
var secretKeys = []string{
	"shared_secret",
	"identity_secret",
	"secret_1",
	"revocation_code",
	"access_token",
	"refresh_token",
	"authorization",
	"x-api-token",
	"steamloginsecure",
	// confirmation signatures and keys on the community endpoints
	"k",
	"ck",
	"ck[]",
}

// Redactor masks secret material in log values: named keys, JSON documents,
// query strings, form bodies and cookie headers.
type Redactor struct {
	keys map[string]struct{}
}

// NewRedactor builds a Redactor for the built-in secret keys plus fields. Keys are case-insensitive.
func NewRedactor(fields ...string) *Redactor {
	all := append(append([]string{}, secretKeys...), fields...)
	all = lo.Filter(lo.Map(all, func(f string, _ int) string {
		return strings.ToLower(strings.TrimSpace(f))
	}), func(f string, _ int) bool { return f != "" })

	return &Redactor{keys: lo.SliceToMap(all, func(f string) (string, struct{}) { return f, struct{}{} })}
}

// Secret reports whether values stored under key are masked.
func (r *Redactor) Secret(key string) bool {
	_, ok := r.keys[strings.ToLower(key)]
	return ok
}

// Value masks secret keys inside decoded JSON-like values.
func (r *Redactor) Value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return lo.MapEntries(val, func(k string, v2 any) (string, any) {
			if r.Secret(k) {
				return k, Masked
			}
			return k, r.Value(v2)
		})
	case map[string]string:
		return lo.MapEntries(val, func(k, v2 string) (string, any) {
			if r.Secret(k) {
				return k, Masked
			}
			return k, v2
		})
	case []any:
		return lo.Map(val, func(v2 any, _ int) any { return r.Value(v2) })
	default:
		return v
	}
}

// Values masks a query string or form body.
func (r *Redactor) Values(values url.Values) map[string]any {
	return lo.MapEntries(values, func(k string, v []string) (string, any) {
		switch {
		case r.Secret(k):
			return k, Masked
		case len(v) == 1:
			return k, v[0]
		default:
			return k, v
		}
	})
}

// URL masks secret query parameters of raw. Unparseable input is returned unchanged.
func (r *Redactor) URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	q := u.Query()
	for k := range q {
		if r.Secret(k) {
			q.Set(k, Masked)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Header masks secret headers and secret cookies inside Cookie and Set-Cookie.
func (r *Redactor) Header(h http.Header) http.Header {
	out := h.Clone()
	for key, values := range out {
		switch {
		case r.Secret(key):
			out[key] = []string{Masked}
		case strings.EqualFold(key, "Cookie"), strings.EqualFold(key, "Set-Cookie"):
			out[key] = lo.Map(values, func(v string, _ int) string { return r.cookie(v) })
		}
	}

	return out
}

func (r *Redactor) cookie(line string) string {
	parts := lo.Map(strings.Split(line, ";"), func(part string, _ int) string {
		part = strings.TrimSpace(part)
		if name, _, ok := strings.Cut(part, "="); ok && r.Secret(name) {
			return name + "=" + Masked
		}
		return part
	})

	return strings.Join(parts, "; ")
}

// Body decodes body for logging: JSON and form payloads are masked, other text
// is truncated and binary content is omitted.
func (r *Redactor) Body(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err == nil {
		return r.Value(doc)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(body)); err == nil {
			return r.Values(values)
		}
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if len(body) > MaxLoggedBody {
		return string(body[:MaxLoggedBody]) + "...(truncated)"
	}

	return string(body)
}

// Attr masks a log attribute.
func (r *Redactor) Attr(attr slog.Attr) slog.Attr {
	if r.Secret(attr.Key) {
		return slog.String(attr.Key, Masked)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		attr.Value = slog.GroupValue(lo.Map(attr.Value.Group(), func(ga slog.Attr, _ int) slog.Attr {
			return r.Attr(ga)
		})...)
	case slog.KindString:
		attr.Value = slog.StringValue(r.text(attr.Value.String()))
	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case nil:
		case map[string]any, map[string]string, []any:
			attr.Value = slog.AnyValue(r.Value(v))
		case url.Values:
			attr.Value = slog.AnyValue(r.Values(v))
		case http.Header:
			attr.Value = slog.AnyValue(r.Header(v))
		case []byte:
			if masked, ok := r.json(v); ok {
				attr.Value = slog.StringValue(masked)
			}
		}
	}

	return attr
}

// text masks JSON documents and URLs carried as plain strings.
func (r *Redactor) text(s string) string {
	if s == "" || len(s) > MaxLoggedBody {
		return s
	}

	switch {
	case s[0] == '{' || s[0] == '[':
		if masked, ok := r.json([]byte(s)); ok {
			return masked
		}
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"), strings.HasPrefix(s, "/"):
		return r.URL(s)
	}

	return s
}

func (r *Redactor) json(payload []byte) (string, bool) {
	var doc any
	if len(payload) == 0 || json.Unmarshal(payload, &doc) != nil {
		return "", false
	}

	masked, err := json.Marshal(r.Value(doc))
	if err != nil {
		return "", false
	}

	return string(masked), true
}
