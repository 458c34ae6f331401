// Package epoch holds the per-epoch committee and proposer view the transition engine works
// against. A Context is derived from the validator registry and randao mixes and is rebuilt,
// never mutated, whenever the state crosses an epoch boundary.
package epoch

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/cache"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/monitoring/tracing"
	"github.com/prysmaticlabs/epoch-engine/time/slots"
	"go.opencensus.io/trace"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEpochOutOfRange is returned when a lookup targets an epoch the context holds no shuffling for.
	ErrEpochOutOfRange = errors.New("epoch outside of the previous, current and next epochs of the context")
	// ErrNotAssigned is returned when a validator has no committee assignment in the requested epoch.
	ErrNotAssigned = errors.New("validator is not assigned to a committee")
	errNilState    = errors.New("nil beacon state")
)

// Status tells whether a context still describes a given epoch.
type Status int

const (
	// Current means the context matches the epoch and has not been superseded.
	Current Status = iota
	// Stale means the context belongs to another epoch or was replaced by a rebuild.
	Stale
)

func (s Status) String() string {
	switch s {
	case Current:
		return "current"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Context is the committee and proposer view of one epoch.
type Context struct {
	epoch              primitives.Epoch
	previous           *cache.Shuffling
	current            *cache.Shuffling
	next               *cache.Shuffling
	activeIndices      []primitives.ValidatorIndex
	totalActiveBalance uint64
	proposers          []primitives.ValidatorIndex
	registry           [32]byte

	shufflingCache *cache.ShufflingCache
	proposerCache  *cache.ProposerIndicesCache
	superseded     atomic.Bool
}

// Option configures a Context.
type Option func(c *Context)

// WithProposerIndicesCache makes the context look up and store proposer sequences in pc.
func WithProposerIndicesCache(pc *cache.ProposerIndicesCache) Option {
	return func(c *Context) {
		c.proposerCache = pc
	}
}

// NewContext builds the context of the state's current epoch from scratch. The previous, current
// and next shufflings are independent and are computed concurrently. A nil shuffling cache
// computes every shuffling directly.
func NewContext(ctx context.Context, st state.ReadOnlyBeaconState, c *cache.ShufflingCache, opts ...Option) (*Context, error) {
	ctx, span := trace.StartSpan(ctx, "epoch.NewContext")
	defer span.End()

	if st == nil {
		return nil, errNilState
	}
	ec := &Context{
		epoch:          helpers.CurrentEpoch(st),
		shufflingCache: c,
	}
	for _, opt := range opts {
		opt(ec)
	}
	span.AddAttributes(trace.Int64Attribute("epoch", int64(ec.epoch)))

	if err := ec.setActiveSet(st); err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s, err := helpers.ShufflingAtEpoch(egctx, st, c, helpers.PrevEpoch(st))
		if err != nil {
			return errors.Wrap(err, "could not compute previous epoch shuffling")
		}
		ec.previous = s
		return nil
	})
	eg.Go(func() error {
		s, err := ec.currentShuffling(egctx, st)
		if err != nil {
			return errors.Wrap(err, "could not compute current epoch shuffling")
		}
		ec.current = s
		return nil
	})
	eg.Go(func() error {
		s, err := helpers.ShufflingAtEpoch(egctx, st, c, ec.epoch+1)
		if err != nil {
			return errors.Wrap(err, "could not compute next epoch shuffling")
		}
		ec.next = s
		return nil
	})
	if err := eg.Wait(); err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}

	if err := ec.setProposers(st); err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}
	return ec, nil
}

// Rebuild returns the context of the state's current epoch, which must be the epoch following
// this context's. The old current shuffling becomes the previous one and the old next shuffling
// is reused as the current one when its seed and active set still match. The receiver is marked
// stale. A state in any other epoch, or one whose previous epoch shuffling differs from this
// context's current shuffling, is rebuilt from scratch.
func (c *Context) Rebuild(ctx context.Context, st state.ReadOnlyBeaconState) (*Context, error) {
	ctx, span := trace.StartSpan(ctx, "epoch.Context.Rebuild")
	defer span.End()

	if st == nil {
		return nil, errNilState
	}
	newEpoch := helpers.CurrentEpoch(st)
	span.AddAttributes(trace.Int64Attribute("epoch", int64(newEpoch)))
	if newEpoch != c.epoch+1 {
		ec, err := NewContext(ctx, st, c.shufflingCache, WithProposerIndicesCache(c.proposerCache))
		if err != nil {
			return nil, err
		}
		c.superseded.Store(true)
		return ec, nil
	}

	reusable, err := c.currentMatches(st, c.epoch)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}
	if !reusable {
		ec, err := NewContext(ctx, st, c.shufflingCache, WithProposerIndicesCache(c.proposerCache))
		if err != nil {
			return nil, err
		}
		c.superseded.Store(true)
		return ec, nil
	}

	ec := &Context{
		epoch:          newEpoch,
		previous:       c.current,
		shufflingCache: c.shufflingCache,
		proposerCache:  c.proposerCache,
	}
	if err := ec.setActiveSet(st); err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}

	seed, err := helpers.Seed(st, newEpoch, params.BeaconConfig().DomainBeaconAttester)
	if err != nil {
		return nil, errors.Wrap(err, "could not get seed")
	}
	if c.next != nil && c.next.Matches(newEpoch, seed, ec.activeIndices) {
		ec.current = c.next
	} else {
		ec.current, err = helpers.GetShuffling(ctx, ec.shufflingCache, newEpoch, seed, ec.activeIndices)
		if err != nil {
			tracing.AnnotateError(span, err)
			return nil, errors.Wrap(err, "could not compute current epoch shuffling")
		}
	}

	ec.next, err = helpers.ShufflingAtEpoch(ctx, st, ec.shufflingCache, newEpoch+1)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not compute next epoch shuffling")
	}
	if err := ec.setProposers(st); err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}

	c.superseded.Store(true)
	return ec, nil
}

// Describes reports whether the context is current for the state's epoch and was built from
// the same seeds and validator registry. A state of another branch or a reloaded snapshot in the
// same epoch is not described by the context.
func (c *Context) Describes(st state.ReadOnlyBeaconState) (bool, error) {
	if st == nil {
		return false, errNilState
	}
	if c.Status(helpers.CurrentEpoch(st)) != Current {
		return false, nil
	}
	for _, s := range []*cache.Shuffling{c.previous, c.current, c.next} {
		if s == nil {
			return false, nil
		}
		seed, err := helpers.Seed(st, s.Epoch, params.BeaconConfig().DomainBeaconAttester)
		if err != nil {
			return false, errors.Wrap(err, "could not get seed")
		}
		if seed != s.Seed {
			return false, nil
		}
	}
	registry, err := helpers.RegistryDigest(st)
	if err != nil {
		return false, errors.Wrap(err, "could not digest validator registry")
	}
	return registry == c.registry, nil
}

// Status reports whether the context describes the given epoch.
func (c *Context) Status(epoch primitives.Epoch) Status {
	if c.superseded.Load() || c.epoch != epoch {
		return Stale
	}
	return Current
}

// Epoch is the current epoch of the context.
func (c *Context) Epoch() primitives.Epoch {
	return c.epoch
}

// ActiveIndices returns the active validator indices of the current epoch. The returned slice
// is shared and must not be modified.
func (c *Context) ActiveIndices() []primitives.ValidatorIndex {
	return c.activeIndices
}

// TotalActiveBalance returns the effective balance at stake in the current epoch, floored at
// one effective balance increment.
func (c *Context) TotalActiveBalance() uint64 {
	return c.totalActiveBalance
}

// ShufflingAtEpoch returns the shuffling of the previous, current or next epoch.
func (c *Context) ShufflingAtEpoch(epoch primitives.Epoch) (*cache.Shuffling, error) {
	switch {
	case c.current != nil && epoch == c.current.Epoch:
		return c.current, nil
	case c.previous != nil && epoch == c.previous.Epoch:
		return c.previous, nil
	case c.next != nil && epoch == c.next.Epoch:
		return c.next, nil
	default:
		return nil, errors.Wrapf(ErrEpochOutOfRange, "epoch %d, context epoch %d", epoch, c.epoch)
	}
}

// CommitteeCountPerSlot returns the number of committees per slot of the epoch.
func (c *Context) CommitteeCountPerSlot(epoch primitives.Epoch) (uint64, error) {
	s, err := c.ShufflingAtEpoch(epoch)
	if err != nil {
		return 0, err
	}
	return s.CommitteesPerSlot, nil
}

// BeaconCommittee returns the members of the committee at the given slot and index. The
// returned slice is shared and must not be modified.
func (c *Context) BeaconCommittee(slot primitives.Slot, committeeIndex primitives.CommitteeIndex) ([]primitives.ValidatorIndex, error) {
	s, err := c.ShufflingAtEpoch(slots.ToEpoch(slot))
	if err != nil {
		return nil, err
	}
	return s.Committee(slot, committeeIndex)
}

// ProposerIndex returns the proposer of a slot of the current epoch.
func (c *Context) ProposerIndex(slot primitives.Slot) (primitives.ValidatorIndex, error) {
	if slots.ToEpoch(slot) != c.epoch {
		return 0, errors.Wrapf(ErrEpochOutOfRange, "slot %d is not in epoch %d", slot, c.epoch)
	}
	i := uint64(slot % params.BeaconConfig().SlotsPerEpoch)
	if i >= uint64(len(c.proposers)) {
		return 0, errors.Errorf("no proposer recorded for slot %d", slot)
	}
	return c.proposers[i], nil
}

// ProposerIndices returns the proposer of every slot of the current epoch, in slot order.
func (c *Context) ProposerIndices() []primitives.ValidatorIndex {
	proposers := make([]primitives.ValidatorIndex, len(c.proposers))
	copy(proposers, c.proposers)
	return proposers
}

func (c *Context) setActiveSet(st state.ReadOnlyBeaconState) error {
	indices, err := helpers.ActiveValidatorIndices(st, c.epoch)
	if err != nil {
		return errors.Wrap(err, "could not get active indices")
	}
	total, err := helpers.TotalBalance(st, indices)
	if err != nil {
		return errors.Wrap(err, "could not get total active balance")
	}
	registry, err := helpers.RegistryDigest(st)
	if err != nil {
		return errors.Wrap(err, "could not digest validator registry")
	}
	c.activeIndices = indices
	c.totalActiveBalance = total
	c.registry = registry
	return nil
}

// currentMatches reports whether the current shuffling is the one st derives for epoch.
func (c *Context) currentMatches(st state.ReadOnlyBeaconState, epoch primitives.Epoch) (bool, error) {
	if c.current == nil {
		return false, nil
	}
	seed, err := helpers.Seed(st, epoch, params.BeaconConfig().DomainBeaconAttester)
	if err != nil {
		return false, errors.Wrap(err, "could not get seed")
	}
	indices, err := helpers.ActiveValidatorIndices(st, epoch)
	if err != nil {
		return false, errors.Wrap(err, "could not get active indices")
	}
	return c.current.Matches(epoch, seed, indices), nil
}

func (c *Context) currentShuffling(ctx context.Context, st state.ReadOnlyBeaconState) (*cache.Shuffling, error) {
	seed, err := helpers.Seed(st, c.epoch, params.BeaconConfig().DomainBeaconAttester)
	if err != nil {
		return nil, errors.Wrap(err, "could not get seed")
	}
	return helpers.GetShuffling(ctx, c.shufflingCache, c.epoch, seed, c.activeIndices)
}

func (c *Context) setProposers(st state.ReadOnlyBeaconState) error {
	proposers, err := helpers.ProposerIndices(st, c.proposerCache, c.epoch, c.activeIndices)
	if err != nil {
		return errors.Wrap(err, "could not compute proposer indices")
	}
	c.proposers = proposers
	return nil
}
