package instrument

import "go.opentelemetry.io/otel/trace"

// Config controls what the instrumentation records. It is read through the
// accessor passed to WithConfig on every resolver call, so it may change while
// requests are running. The zero Config disables instrumentation.
type Config struct {
	Enabled bool

	// AllowValues keeps literal values (strings, numbers) in source excerpts.
	// When false they are replaced with "*".
	AllowValues bool

	// Depth limits resolve spans to fields at most Depth levels deep. List
	// indices do not count as levels. -1 means unlimited.
	Depth int

	// MergeItems reports all items of a list field under a single span.
	MergeItems bool

	// IgnoreTrivialResolveSpans skips spans for fields resolved by the default
	// field resolver.
	IgnoreTrivialResolveSpans bool

	// IgnoreResolveSpans skips resolve spans altogether.
	IgnoreResolveSpans bool
}

// DefaultConfig returns an enabled configuration with unlimited depth.
func DefaultConfig() Config {
	return Config{Enabled: true, Depth: -1}
}

// Option configures an Instrumentation.
type Option func(*Instrumentation)

// WithTracerProvider sets the provider spans are created from. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(i *Instrumentation) { i.tracer = tp.Tracer(instrumentationName) }
}

// WithConfig sets the configuration accessor.
func WithConfig(fn func() Config) Option {
	return func(i *Instrumentation) { i.config = fn }
}

// WithStaticConfig uses cfg for every call.
func WithStaticConfig(cfg Config) Option {
	return WithConfig(func() Config { return cfg })
}
