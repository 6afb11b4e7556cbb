package catauthz

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Option configures a Dispatcher, following an option-functor construction
// style (NewChecker(q, opts...) / WithCache, WithDecision, ...).
type Option func(*Dispatcher)

// WithImplicitDeny sets the fallback used when no rule matches a candidate.
// Defaults to true, matching Datasette's default-deny-when-unmatched stance.
func WithImplicitDeny(v bool) Option {
	return func(d *Dispatcher) { d.implicitDeny = v }
}

// WithTimeout bounds each resolver SQL execution. Zero means no deadline is
// imposed beyond the caller's own context.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// WithProviders appends additional providers (e.g. providers.External-wrapped
// plugins) to the dispatcher's fan-out set, alongside whatever was passed to
// NewDispatcher.
func WithProviders(providers ...Provider) Option {
	return func(d *Dispatcher) { d.providers = append(d.providers, providers...) }
}

// Dispatcher is the public entry point: Can, PermittedResources, Explain.
// It holds no cache and no per-request mutable state; every call re-fans-out
// to the providers and re-resolves, since a stale cross-request verdict would
// silently leak access.
type Dispatcher struct {
	registry     *Registry
	store        Store
	providers    []Provider
	implicitDeny bool
	timeout      time.Duration
}

// NewDispatcher builds a Dispatcher over the given action registry, catalog
// store, and provider set.
func NewDispatcher(registry *Registry, store Store, providers []Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:     registry,
		store:        store,
		providers:    append([]Provider{}, providers...),
		implicitDeny: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.timeout)
}

// fanOut invokes every provider concurrently and joins their fragments as a
// barrier before composition.
func (d *Dispatcher) fanOut(ctx context.Context, actor Actor, action Action) ([]RuleFragment, error) {
	results := make([][]RuleFragment, len(d.providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range d.providers {
		i, p := i, p
		g.Go(func() error {
			frags, err := p.Fragments(gctx, actor, action)
			if err != nil {
				return &ProviderError{Source: p.Name(), Err: err}
			}
			for j := range frags {
				if frags[j].Source == "" {
					frags[j].Source = p.Name()
				}
			}
			results[i] = frags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []RuleFragment
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func (d *Dispatcher) resolveOne(ctx context.Context, actor Actor, action Action, cand Candidate) (Verdict, error) {
	ctx, cancel := d.withDeadline(ctx)
	defer cancel()

	frags, err := d.fanOut(ctx, actor, action)
	if err != nil {
		return Verdict{}, err
	}

	r := newResolver(d.store)
	verdicts, err := r.resolveCandidate(ctx, actor, action, frags, d.implicitDeny, cand)
	if err != nil {
		return Verdict{}, err
	}
	return verdicts, nil
}

// resourceShape validates that cand matches the action's declared scope and
// returns ErrResourceShapeMismatch otherwise.
func resourceShape(action Action, cand Candidate) error {
	switch {
	case !action.TakesParent && (cand.Parent != nil || cand.Child != nil):
		return fmt.Errorf("%w: %s is root-scoped", ErrResourceShapeMismatch, action.Name)
	case action.TakesParent && !action.TakesChild && (cand.Parent == nil || cand.Child != nil):
		return fmt.Errorf("%w: %s is parent-scoped", ErrResourceShapeMismatch, action.Name)
	case action.TakesChild && (cand.Parent == nil || cand.Child == nil):
		return fmt.Errorf("%w: %s is child-scoped", ErrResourceShapeMismatch, action.Name)
	}
	return nil
}

// Can resolves a single candidate and reports whether it is allowed.
func (d *Dispatcher) Can(ctx context.Context, actor Actor, actionRef string, cand Candidate) (bool, error) {
	v, err := d.Explain(ctx, actor, actionRef, cand)
	if err != nil {
		return false, err
	}
	return v.Allowed(), nil
}

// Explain resolves a single candidate and returns the full verdict.
func (d *Dispatcher) Explain(ctx context.Context, actor Actor, actionRef string, cand Candidate) (Verdict, error) {
	action, ok := d.registry.Lookup(actionRef)
	if !ok {
		return Verdict{}, fmt.Errorf("%w: %s", ErrUnknownAction, actionRef)
	}
	if err := resourceShape(action, cand); err != nil {
		return Verdict{}, err
	}
	return d.resolveOne(ctx, actor, action, cand)
}

// PermittedResources resolves against the catalog-derived candidate set for
// the action's resource kind and returns only the candidates where allow=1.
func (d *Dispatcher) PermittedResources(ctx context.Context, actor Actor, actionRef string) ([]Candidate, error) {
	action, ok := d.registry.Lookup(actionRef)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, actionRef)
	}

	ctx, cancel := d.withDeadline(ctx)
	defer cancel()

	frags, err := d.fanOut(ctx, actor, action)
	if err != nil {
		return nil, err
	}

	r := newResolver(d.store)
	verdicts, err := r.resolve(ctx, actor, action, frags, d.implicitDeny)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, v := range verdicts {
		if v.Allowed() {
			out = append(out, Candidate{Parent: v.Parent, Child: v.Child})
		}
	}
	return out, nil
}
