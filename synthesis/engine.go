package synthesis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/marcelsud/webhook-inspector/templates"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/schema"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

/* Engine turns a selection of captured webhooks into handler code
 * The backend is an external, paid resource: calls are capped with a
 * non-blocking semaphore and each attempt runs under its own deadline
 */

// Outcomes reported to the Recorder
const (
	OutcomeSuccess   = "success"
	OutcomeThrottled = "throttled"
	OutcomeNoSamples = "no_samples"
	OutcomeTimeout   = "timeout"
	OutcomeUpstream  = "upstream_error"
	OutcomeError     = "error"
)

// Config bounds the engine
type Config struct {
	Timeout          time.Duration // per backend attempt
	RetryDelay       time.Duration
	MaxConcurrent    int64
	MaxSelection     int
	MaxPromptSamples int
	MaxSampleBytes   int
	RedactHeaders    []string
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Timeout:          30 * time.Second,
		RetryDelay:       500 * time.Millisecond,
		MaxConcurrent:    4,
		MaxSelection:     50,
		MaxPromptSamples: 5,
		MaxSampleBytes:   4096,
		RedactHeaders:    []string{"authorization", "proxy-authorization", "cookie", "set-cookie", "x-api-key"},
	}
}

// Options select what to generate
type Options struct {
	Language string // template name; empty selects the catalog default
}

// Artifact is the result of one synthesis; it is never stored
type Artifact struct {
	Code         string
	Language     string
	Schema       *schema.Descriptor
	SampleIDs    []string
	Unstructured bool
}

// Source loads the selected webhooks
type Source interface {
	GetMany(ctx context.Context, ids []string) ([]webhook.Webhook, []string, error)
}

// UseCase defines the synthesis operation
type UseCase interface {
	Synthesize(ctx context.Context, ids []string, opts Options) (Artifact, error)
}

// Recorder receives synthesis metrics
type Recorder interface {
	SynthesisStarted(ctx context.Context)
	SynthesisFinished(ctx context.Context, outcome string, elapsed time.Duration)
}

type Engine struct {
	Source    Source
	Backend   Synthesizer
	Templates *templates.Catalog
	Logger    zerolog.Logger
	Recorder  Recorder

	cfg Config
	sem *semaphore.Weighted
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.Logger = logger }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.Recorder = r }
}

// NewEngine creates an engine; zero config values fall back to DefaultConfig
func NewEngine(source Source, backend Synthesizer, catalog *templates.Catalog, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.MaxSelection <= 0 {
		cfg.MaxSelection = def.MaxSelection
	}
	if cfg.MaxPromptSamples <= 0 {
		cfg.MaxPromptSamples = def.MaxPromptSamples
	}
	if cfg.MaxSampleBytes <= 0 {
		cfg.MaxSampleBytes = def.MaxSampleBytes
	}
	if cfg.RedactHeaders == nil {
		cfg.RedactHeaders = def.RedactHeaders
	}

	e := &Engine{
		Source:    source,
		Backend:   backend,
		Templates: catalog,
		Logger:    zerolog.Nop(),
		Recorder:  nopRecorder{},
		cfg:       cfg,
		sem:       semaphore.NewWeighted(cfg.MaxConcurrent),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Synthesize generates handler code for the selected webhooks.
// It either returns complete code or an error, never partial output.
func (e *Engine) Synthesize(ctx context.Context, ids []string, opts Options) (Artifact, error) {
	if len(ids) == 0 {
		return Artifact{}, ErrEmptySelection
	}
	ids = dedupe(ids)
	if len(ids) > e.cfg.MaxSelection {
		return Artifact{}, fmt.Errorf("%w: %d selected, at most %d", ErrTooManySamples, len(ids), e.cfg.MaxSelection)
	}

	tmpl, err := e.Templates.Get(opts.Language)
	if err != nil {
		return Artifact{}, err
	}

	// rejected immediately instead of queueing behind slow backend calls
	if !e.sem.TryAcquire(1) {
		e.Recorder.SynthesisFinished(ctx, OutcomeThrottled, 0)
		return Artifact{}, ErrTooManyRequests
	}
	defer e.sem.Release(1)

	e.Recorder.SynthesisStarted(ctx)
	start := time.Now()

	artifact, err := e.synthesize(ctx, ids, tmpl)
	e.Recorder.SynthesisFinished(ctx, outcome(err), time.Since(start))
	if err != nil {
		return Artifact{}, err
	}
	return artifact, nil
}

func (e *Engine) synthesize(ctx context.Context, ids []string, tmpl *templates.Template) (Artifact, error) {
	records, missing, err := e.Source.GetMany(ctx, ids)
	if err != nil {
		return Artifact{}, fmt.Errorf("loading samples: %w", err)
	}
	for _, id := range missing {
		e.Logger.Warn().Str("webhook_id", id).Msg("selected webhook not found, skipping")
	}
	if len(records) == 0 {
		return Artifact{}, ErrNoValidSamples
	}

	artifact := Artifact{
		Language:  tmpl.Name,
		SampleIDs: make([]string, len(records)),
	}

	samples := make([]schema.Sample, len(records))
	for i, wh := range records {
		artifact.SampleIDs[i] = wh.ID
		samples[i] = schema.Sample{ID: wh.ID}
		if wh.Body != nil {
			samples[i].Body = *wh.Body
		}
	}

	desc, err := schema.Infer(samples)
	switch {
	case errors.Is(err, schema.ErrNoStructuredData):
		artifact.Unstructured = true
	case err != nil:
		return Artifact{}, fmt.Errorf("inferring schema: %w", err)
	default:
		artifact.Schema = &desc
	}

	prompt := BuildPrompt(PromptInput{
		Template: tmpl,
		Schema:   artifact.Schema,
		Samples:  records,
	}, PromptLimits{
		MaxSamples:   e.cfg.MaxPromptSamples,
		MaxBodyBytes: e.cfg.MaxSampleBytes,
		Redact:       e.cfg.RedactHeaders,
	})

	text, err := e.complete(ctx, prompt)
	if err != nil {
		return Artifact{}, err
	}

	code := ExtractCode(text)
	if strings.TrimSpace(code) == "" {
		return Artifact{}, &Error{Kind: ErrUpstreamError, Cause: errors.New("backend returned no code")}
	}
	artifact.Code = code

	e.Logger.Info().
		Int("samples", len(records)).
		Int("missing", len(missing)).
		Bool("unstructured", artifact.Unstructured).
		Str("language", tmpl.Name).
		Msg("handler synthesized")

	return artifact, nil
}

// complete calls the backend, retrying once when the failure is transient
func (e *Engine) complete(ctx context.Context, prompt string) (string, error) {
	var text string
	attempt := 0

	op := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()

		out, err := e.call(callCtx, prompt)
		if err == nil {
			text = out
			return nil
		}

		if ctx.Err() == nil && isTransient(err) {
			e.Logger.Warn().Err(err).Int("attempt", attempt).Msg("transient backend failure")
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(e.cfg.RetryDelay), 1),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		e.Logger.Error().Err(err).Int("attempts", attempt).Msg("synthesis failed")
		return "", classify(err)
	}
	return text, nil
}

type completion struct {
	text string
	err  error
}

// call abandons the backend when ctx ends, even if the backend ignores ctx.
// The abandoned call finishes in the background and its result is dropped.
func (e *Engine) call(ctx context.Context, prompt string) (string, error) {
	done := make(chan completion, 1)
	go func() {
		text, err := e.Backend.Complete(ctx, prompt)
		done <- completion{text: text, err: err}
	}()

	select {
	case c := <-done:
		return c.text, c.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func isTransient(err error) bool {
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func classify(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrUpstreamTimeout, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: ErrUpstreamTimeout, Cause: err}
	}
	return &Error{Kind: ErrUpstreamError, Cause: err}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrNoValidSamples):
		return OutcomeNoSamples
	case errors.Is(err, ErrUpstreamTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrUpstreamError):
		return OutcomeUpstream
	default:
		return OutcomeError
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

type nopRecorder struct{}

func (nopRecorder) SynthesisStarted(context.Context) {}
func (nopRecorder) SynthesisFinished(context.Context, string, time.Duration) {}
