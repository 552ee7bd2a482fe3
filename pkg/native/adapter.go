package native

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	initFlightKey       = "init"
	defaultProbeTimeout = 10 * time.Second
)

// State is the lifecycle position of an Adapter.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	// StateReady means a provider opened and a Library is held.
	StateReady
	// StateDegraded means initialization settled without a Library. Parses
	// take the fallback path until Cleanup resets the adapter.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is a snapshot of the adapter.
type Status struct {
	State    State
	Provider string
	// Reason explains a degraded state.
	Reason error
}

// Available reports whether a Library is ready for use.
func (s Status) Available() bool {
	return s.State == StateReady
}

// AdapterOption customises an Adapter.
type AdapterOption func(*Adapter)

// WithLogger attaches a zap logger.
func WithLogger(logger *zap.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithPreference sets the provider names tried first, in order.
func WithPreference(names ...string) AdapterOption {
	return func(a *Adapter) {
		a.preference = append([]string(nil), names...)
	}
}

// WithProbeTimeout bounds each Provider.Open call.
func WithProbeTimeout(timeout time.Duration) AdapterOption {
	return func(a *Adapter) {
		if timeout > 0 {
			a.probeTimeout = timeout
		}
	}
}

// WithObserver registers a callback invoked once per settled initialization.
func WithObserver(observe func(Status)) AdapterOption {
	return func(a *Adapter) {
		a.observe = observe
	}
}

// Adapter owns the process-wide native Library handle. It initializes lazily
// on first use; concurrent callers share one in-flight initialization, so at
// most one Library is opened per generation. Ready and Degraded are terminal
// until Cleanup.
type Adapter struct {
	registry     *Registry
	preference   []string
	probeTimeout time.Duration
	logger       *zap.Logger
	observe      func(Status)

	flight singleflight.Group

	mu         sync.Mutex
	state      State
	library    Library
	provider   string
	reason     error
	generation uint64
}

// NewAdapter constructs an uninitialized adapter over the registry. A nil
// registry behaves like an empty one.
func NewAdapter(registry *Registry, options ...AdapterOption) *Adapter {
	if registry == nil {
		registry = NewRegistry()
	}
	a := &Adapter{
		registry:     registry,
		probeTimeout: defaultProbeTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// Registry exposes the provider registry.
func (a *Adapter) Registry() *Registry {
	return a.registry
}

// Status returns the current adapter snapshot without initializing.
func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statusLocked()
}

// Init settles initialization and returns the resulting status. It never
// fails: any provider error lands in StateDegraded with Reason set. The
// caller's cancellation does not abort an initialization shared with others.
func (a *Adapter) Init(ctx context.Context) Status {
	if status, settled := a.settled(); settled {
		return status
	}

	detached := context.WithoutCancel(ctx)
	value, _, _ := a.flight.Do(initFlightKey, func() (any, error) {
		return a.initialize(detached), nil
	})
	status, ok := value.(Status)
	if !ok {
		return Status{State: StateDegraded, Reason: errors.New("native: initialization returned no status")}
	}
	return status
}

// Acquire initializes if needed and returns the ready Library. When the
// adapter is degraded the Library is nil and the status explains why.
func (a *Adapter) Acquire(ctx context.Context) (Library, Status) {
	status := a.Init(ctx)
	if !status.Available() {
		return nil, status
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.library == nil {
		// Cleanup ran between Init and here.
		return nil, Status{State: StateDegraded, Reason: errors.New("native: adapter was cleaned up")}
	}
	return a.library, a.statusLocked()
}

// Cleanup closes the held Library and returns the adapter to
// StateUninitialized. Callers must not clean up while parses are in flight.
func (a *Adapter) Cleanup() error {
	a.mu.Lock()
	library := a.library
	provider := a.provider
	a.library = nil
	a.provider = ""
	a.reason = nil
	a.state = StateUninitialized
	a.generation++
	a.mu.Unlock()

	if library == nil {
		return nil
	}
	a.logger.Debug("native library released", zap.String("provider", provider))
	if err := library.Close(); err != nil {
		return fmt.Errorf("native: close %s: %w", provider, err)
	}
	return nil
}

func (a *Adapter) settled() (Status, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case StateReady, StateDegraded:
		return a.statusLocked(), true
	default:
		return Status{}, false
	}
}

func (a *Adapter) statusLocked() Status {
	return Status{State: a.state, Provider: a.provider, Reason: a.reason}
}

func (a *Adapter) initialize(ctx context.Context) Status {
	a.mu.Lock()
	if a.state == StateReady || a.state == StateDegraded {
		status := a.statusLocked()
		a.mu.Unlock()
		return status
	}
	a.state = StateInitializing
	generation := a.generation
	a.mu.Unlock()

	library, provider, err := a.open(ctx)

	a.mu.Lock()
	if generation != a.generation {
		a.mu.Unlock()
		if library != nil {
			_ = library.Close()
		}
		return Status{State: StateDegraded, Reason: errors.New("native: adapter was cleaned up during initialization")}
	}
	if err != nil {
		a.state = StateDegraded
		a.reason = err
		a.library = nil
		a.provider = ""
	} else {
		a.state = StateReady
		a.reason = nil
		a.library = library
		a.provider = provider
	}
	status := a.statusLocked()
	a.mu.Unlock()

	if status.Available() {
		a.logger.Info("native DWG parser ready", zap.String("provider", status.Provider))
	} else {
		a.logger.Warn("native DWG parser unavailable, using fallback", zap.Error(status.Reason))
	}
	if a.observe != nil {
		a.observe(status)
	}
	return status
}

func (a *Adapter) open(ctx context.Context) (Library, string, error) {
	providers := a.registry.Ordered(a.preference...)
	if len(providers) == 0 {
		return nil, "", ErrNoProvider
	}

	var errs []error
	for _, provider := range providers {
		probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
		library, err := openProvider(probeCtx, provider)
		cancel()
		if err == nil {
			return library, provider.Name(), nil
		}
		a.logger.Debug("native provider probe failed", zap.String("provider", provider.Name()), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
	}
	return nil, "", errors.Join(errs...)
}

func openProvider(ctx context.Context, provider Provider) (library Library, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			library = nil
			err = fmt.Errorf("native: provider panicked: %v", recovered)
		}
	}()
	library, err = provider.Open(ctx)
	if err == nil && library == nil {
		err = ErrProviderUnavailable
	}
	return library, err
}
