package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/marcelsud/webhook-inspector/webhook"
)

var (
	methods      = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	statusCodes  = []int{200, 201, 204, 400, 401, 403, 404, 422, 500, 502, 503}
	contentTypes = []string{
		"application/json",
		"application/xml",
		"application/x-www-form-urlencoded",
		"multipart/form-data",
		"text/plain",
		"text/html",
	}
	userAgents = []string{
		"Stripe/1.0 (+https://stripe.com/docs/webhooks)",
		"GitHub-Hookshot/2a3f9c1",
		"Slackbot 1.0 (+https://api.slack.com/robots)",
		"PayPal/AUHD-214.0-58725426",
		"curl/8.5.0",
	}
	accepts   = []string{"application/json", "*/*", "application/json, text/plain, */*"}
	languages = []string{"en-US,en;q=0.9", "pt-BR,pt;q=0.9", "es-ES,es;q=0.9", "de-DE,de;q=0.9"}
	providers = []string{"stripe", "paypal", "github", "slack", "discord"}
	resources = []string{"users", "products", "orders", "payments", "invoices"}
	events    = []string{"payment.received", "payment.failed", "order.created", "user.updated"}
	words     = []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	names     = []string{"Ada Lovelace", "Alan Turing", "Grace Hopper", "Linus Torvalds", "Barbara Liskov"}
)

// generator produces fake captured requests
type generator struct {
	rnd *rand.Rand
}

func newGenerator(seed uint64) *generator {
	return &generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func pick[T any](g *generator, items []T) T {
	return items[g.rnd.IntN(len(items))]
}

func (g *generator) chance(p float64) bool {
	return g.rnd.Float64() < p
}

func (g *generator) id() string {
	var b [16]byte
	for i := range b {
		b[i] = byte(g.rnd.UintN(256))
	}
	u, _ := uuid.FromBytes(b[:])
	return u.String()
}

func (g *generator) alnum(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(letters[g.rnd.IntN(len(letters))])
	}
	return b.String()
}

func (g *generator) ip() string {
	return fmt.Sprintf("%d.%d.%d.%d", 1+g.rnd.IntN(223), g.rnd.IntN(256), g.rnd.IntN(256), 1+g.rnd.IntN(254))
}

// Webhook returns a request without id or capture time
func (g *generator) Webhook() webhook.Webhook {
	method := pick(g, methods)

	wh := webhook.Webhook{
		Method:      method,
		Pathname:    g.pathname(),
		IP:          g.ip(),
		StatusCode:  pick(g, statusCodes),
		QueryParams: g.query(),
	}

	if hasBody(method) {
		ct := pick(g, contentTypes)
		wh.ContentType = &ct
		if body := g.body(ct); body != "" {
			length := len(body)
			wh.Body = &body
			wh.ContentLength = &length
		}
	}

	wh.Headers = g.headers(wh.ContentType, wh.ContentLength)
	return wh
}

func hasBody(method string) bool {
	return method != "GET" && method != "HEAD" && method != "OPTIONS"
}

func (g *generator) pathname() string {
	switch g.rnd.IntN(4) {
	case 0:
		return "/api/" + pick(g, resources)
	case 1:
		return "/api/" + pick(g, resources) + "/" + g.id()
	case 2:
		return "/api/webhooks/" + pick(g, providers)
	default:
		return "/api/" + pick(g, words) + "/" + g.id() + "/" + pick(g, words)
	}
}

func (g *generator) query() map[string]string {
	if g.chance(0.4) {
		return nil
	}
	keys := []string{"page", "limit", "sort", "filter", "status", "q", "order"}
	params := make(map[string]string)
	for i := 0; i < 1+g.rnd.IntN(4); i++ {
		switch g.rnd.IntN(3) {
		case 0:
			params[pick(g, keys)] = fmt.Sprint(1 + g.rnd.IntN(100))
		case 1:
			params[pick(g, keys)] = pick(g, []string{"asc", "desc", "active", "pending", "completed"})
		default:
			params[pick(g, keys)] = pick(g, words)
		}
	}
	return params
}

func (g *generator) headers(contentType *string, contentLength *int) map[string]string {
	h := map[string]string{
		"user-agent":      pick(g, userAgents),
		"accept":          pick(g, accepts),
		"accept-language": pick(g, languages),
		"accept-encoding": "gzip, deflate, br",
		"connection":      "keep-alive",
	}
	if contentType != nil {
		h["content-type"] = *contentType
	}
	if contentLength != nil {
		h["content-length"] = fmt.Sprint(*contentLength)
	}
	if g.chance(0.5) {
		h["authorization"] = pick(g, []string{"Bearer ", "Basic ", "Token "}) + g.alnum(40)
	}
	if g.chance(0.3) {
		h["x-api-key"] = "sk_live_" + g.alnum(32)
	}
	if g.chance(0.4) {
		h["x-request-id"] = g.id()
	}
	if g.chance(0.3) {
		h["x-forwarded-for"] = g.ip()
	}
	return h
}

func (g *generator) body(contentType string) string {
	switch contentType {
	case "application/json":
		return g.jsonBody()
	case "application/x-www-form-urlencoded":
		v := url.Values{}
		v.Set("name", pick(g, names))
		v.Set("email", strings.ToLower(pick(g, words))+"@example.com")
		v.Set("age", fmt.Sprint(18+g.rnd.IntN(62)))
		return v.Encode()
	case "text/plain":
		return g.sentence(12)
	case "text/html":
		return "<html><body><h1>" + g.sentence(5) + "</h1><p>" + g.sentence(20) + "</p></body></html>"
	case "application/xml":
		return fmt.Sprintf(`<?xml version="1.0"?><root><item>%s</item><value>%d</value></root>`, pick(g, words), 1+g.rnd.IntN(100))
	default:
		return ""
	}
}

func (g *generator) jsonBody() string {
	var v any
	switch g.rnd.IntN(5) {
	case 0:
		v = map[string]any{"name": pick(g, names), "email": pick(g, words) + "@example.com", "age": 18 + g.rnd.IntN(62)}
	case 1:
		v = map[string]any{"productId": g.id(), "quantity": 1 + g.rnd.IntN(10), "price": fmt.Sprintf("%.2f", g.rnd.Float64()*500)}
	case 2:
		v = map[string]any{"orderId": "ORD-" + strings.ToUpper(g.alnum(10)), "status": pick(g, []string{"pending", "completed", "cancelled"})}
	case 3:
		v = map[string]any{"event": pick(g, events), "amount": fmt.Sprintf("%.2f", g.rnd.Float64()*1000), "currency": pick(g, []string{"USD", "EUR", "BRL"})}
	default:
		v = map[string]any{"data": map[string]any{"nested": map[string]any{"value": pick(g, words), "count": 1 + g.rnd.IntN(100)}}}
	}
	out, _ := json.Marshal(v)
	return string(out)
}

func (g *generator) sentence(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = pick(g, words)
	}
	return strings.Join(parts, " ") + "."
}
