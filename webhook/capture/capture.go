package capture

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/marcelsud/webhook-inspector/webhook"
)

/* Normalizer turns any inbound request into a webhook record
 * No request is rejected for its method, path, content type or payload;
 * only the body size cap can refuse a capture
 */

const (
	DefaultMaxBodyBytes = 1 << 20 // 1 MiB
	DefaultStatusCode   = http.StatusOK
)

// Options configures the normalizer
type Options struct {
	MaxBodyBytes int64
	StatusCode   int
	/* TrustProxy takes the client ip from the first X-Forwarded-For hop
	 * Only enable it behind a proxy that sets the header
	 */
	TrustProxy bool
	// StripPrefix is removed from the request path, e.g. "/capture"
	StripPrefix string
}

type Normalizer struct {
	opts Options
}

// NewNormalizer creates a Normalizer, applying defaults for zero options
func NewNormalizer(opts Options) *Normalizer {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.StatusCode == 0 {
		opts.StatusCode = DefaultStatusCode
	}
	return &Normalizer{opts: opts}
}

// StatusCode is the status every capture is acknowledged with
func (n *Normalizer) StatusCode() int {
	return n.opts.StatusCode
}

// Normalize reads the request and returns a webhook without id or capture time
func (n *Normalizer) Normalize(r *http.Request) (webhook.Webhook, error) {
	body, err := n.readBody(r)
	if err != nil {
		return webhook.Webhook{}, err
	}

	wh := webhook.Webhook{
		Method:      r.Method,
		Pathname:    n.pathname(r.URL),
		IP:          n.clientIP(r),
		StatusCode:  n.opts.StatusCode,
		QueryParams: queryParams(r.URL),
		Headers:     headers(r),
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		wh.ContentType = &ct
	}

	// the stored length is the length actually read, whatever Content-Length said
	if len(body) > 0 {
		s := string(body)
		length := len(body)
		wh.Body = &s
		wh.ContentLength = &length
	}

	return wh, nil
}

func (n *Normalizer) readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	limit := n.opts.MaxBodyBytes
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, webhook.ErrPayloadTooLarge
		}
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, webhook.ErrPayloadTooLarge
	}
	return body, nil
}

func (n *Normalizer) pathname(u *url.URL) string {
	p := u.Path
	if n.opts.StripPrefix != "" {
		p = strings.TrimPrefix(p, n.opts.StripPrefix)
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func (n *Normalizer) clientIP(r *http.Request) string {
	if n.opts.TrustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// headers lower-cases names and joins repeated values with ", "
func headers(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.Header)+1)
	for name, values := range r.Header {
		key := strings.ToLower(name)
		if prev, ok := out[key]; ok {
			out[key] = prev + ", " + strings.Join(values, ", ")
			continue
		}
		out[key] = strings.Join(values, ", ")
	}

	// net/http moves Host out of the header map
	if _, ok := out["host"]; !ok && r.Host != "" {
		out["host"] = r.Host
	}

	return out
}

// queryParams returns nil when the URL carries no query string at all,
// and a (possibly empty) map when a "?" was present
func queryParams(u *url.URL) map[string]string {
	if u.RawQuery == "" && !u.ForceQuery {
		return nil
	}

	values, _ := url.ParseQuery(u.RawQuery)
	params := make(map[string]string, len(values))
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params[k] = strings.Join(values[k], ", ")
	}
	return params
}
