package synthesis

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/marcelsud/webhook-inspector/templates"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/schema"
)

const redacted = "[REDACTED]"

// PromptInput is everything a prompt is built from
type PromptInput struct {
	Template *templates.Template
	Schema   *schema.Descriptor // nil when no body was JSON
	Samples  []webhook.Webhook
}

// PromptLimits bounds how much raw sample data reaches the prompt
type PromptLimits struct {
	MaxSamples   int
	MaxBodyBytes int
	Redact       []string
}

// BuildPrompt renders the input as text. The same input always yields the same prompt.
func BuildPrompt(in PromptInput, limits PromptLimits) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You write request handlers for incoming webhooks.\n")
	fmt.Fprintf(&b, "Target: %s (%s)\n\n", in.Template.Name, in.Template.Language)
	b.WriteString(strings.TrimSpace(in.Template.Instructions))
	fmt.Fprintf(&b, "\n\nAnswer with exactly one fenced code block tagged %q and nothing else.\n\n", in.Template.Fence)

	b.WriteString("## Payload schema\n")
	if in.Schema == nil {
		b.WriteString("No sample body is valid JSON. Derive the payload shape from the raw samples below.\n\n")
	} else {
		b.WriteString("Paths use a.b for nested keys and a[] for array elements. ")
		b.WriteString("Fields marked mixed carry more than one type; handle every listed type.\n")
		b.WriteString(in.Schema.Render())
		b.WriteByte('\n')
	}

	samples := in.Samples
	if limits.MaxSamples > 0 && len(samples) > limits.MaxSamples {
		samples = samples[:limits.MaxSamples]
	}
	fmt.Fprintf(&b, "## Samples (%d of %d)\n", len(samples), len(in.Samples))

	redact := make(map[string]bool, len(limits.Redact))
	for _, h := range limits.Redact {
		redact[strings.ToLower(h)] = true
	}

	for i, wh := range samples {
		fmt.Fprintf(&b, "\n### Sample %d\n", i+1)
		fmt.Fprintf(&b, "%s %s\n", wh.Method, wh.Pathname)
		if wh.QueryParams != nil {
			fmt.Fprintf(&b, "Query: %s\n", encodeQuery(wh.QueryParams))
		}

		names := make([]string, 0, len(wh.Headers))
		for name := range wh.Headers {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("Headers:\n")
		for _, name := range names {
			value := wh.Headers[name]
			if redact[strings.ToLower(name)] {
				value = redacted
			}
			fmt.Fprintf(&b, "  %s: %s\n", name, value)
		}

		if wh.Body == nil {
			b.WriteString("Body: (empty)\n")
			continue
		}
		b.WriteString("Body:\n")
		b.WriteString(truncate(*wh.Body, limits.MaxBodyBytes))
		b.WriteByte('\n')
	}

	return b.String()
}

func encodeQuery(params map[string]string) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	// Encode sorts by key
	return values.Encode()
}

// truncate cuts s to at most max bytes without splitting a rune
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n... [truncated, %d bytes total]", len(s))
}
