package recognition

import (
	"context"

	"scribe/internal/deps"
	"scribe/internal/media"
)

// Provider is the uniform adapter contract: transcribe one audio unit into a
// raw recognition result. Implementations re-check their prerequisites at
// call time, honor the config timeout, and never leave partial output behind.
type Provider interface {
	// Method names the provider.
	Method() Method
	// DisplayName is the human-readable provider name for status output.
	DisplayName() string
	// Probe is a side-effect-free prerequisite check.
	Probe() deps.Status
	// SupportsTimestamps reports whether the provider emits segment-level
	// timing. Providers without it produce whole-track text only.
	SupportsTimestamps() bool
	// Transcribe converts an audio unit to a raw result. Failures are tagged
	// with the recognition error taxonomy.
	Transcribe(ctx context.Context, unit media.AudioUnit, cfg Config) (Result, error)
}

// Registry maps methods to registered adapters. New providers are added by
// registering an adapter, not by editing a dispatch chain.
type Registry struct {
	providers map[Method]Provider
	order     []Method
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[Method]Provider)}
}

// Register adds an adapter, replacing any previous adapter for the method.
func (r *Registry) Register(provider Provider) {
	method := provider.Method()
	if _, exists := r.providers[method]; !exists {
		r.order = append(r.order, method)
	}
	r.providers[method] = provider
}

// Lookup returns the adapter registered for a method.
func (r *Registry) Lookup(method Method) (Provider, bool) {
	provider, ok := r.providers[method]
	return provider, ok
}

// Methods returns registered methods in registration order.
func (r *Registry) Methods() []Method {
	out := make([]Method, len(r.order))
	copy(out, r.order)
	return out
}

// Availability is an immutable snapshot of which providers had their
// prerequisites satisfied when the recognizer was constructed. The
// environment is read once per recognizer instance, not re-probed per call.
type Availability map[Method]bool

// ProbeAvailability runs every registered adapter's probe.
func ProbeAvailability(registry *Registry) Availability {
	snapshot := make(Availability, len(registry.order))
	for _, method := range registry.order {
		provider := registry.providers[method]
		snapshot[method] = provider.Probe().Available
	}
	return snapshot
}

// IsAvailable reports the snapshot state for one method.
func (a Availability) IsAvailable(method Method) bool {
	return a[method]
}
