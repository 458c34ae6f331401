// Package archiver persists post-epoch states handed over by the transition engine to the
// state archive.
package archiver

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/db"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/time/slots"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "archiver")

const defaultQueueSize = 4

var errServiceStopped = errors.New("archiver service is stopped")

// Service defining archiver functionality for persisting post-epoch beacon states to a
// database backend for historical purposes.
type Service struct {
	ctx            context.Context
	cancel         context.CancelFunc
	beaconDB       db.Database
	epochFrequency uint64
	states         chan state.ReadOnlyBeaconState
	wg             sync.WaitGroup

	lock    sync.RWMutex
	lastErr error
}

// Config options for the archiver service.
type Config struct {
	BeaconDB db.Database
	// EpochFrequency archives states whose epoch is a multiple of it. Zero archives every epoch.
	EpochFrequency uint64
	// QueueSize bounds the states waiting to be written.
	QueueSize int
}

// NewArchiverService initializes the service from configuration options.
func NewArchiverService(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	freq := cfg.EpochFrequency
	if freq == 0 {
		freq = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Service{
		ctx:            ctx,
		cancel:         cancel,
		beaconDB:       cfg.BeaconDB,
		epochFrequency: freq,
		states:         make(chan state.ReadOnlyBeaconState, size),
	}
}

// Start the archiver service event loop.
func (s *Service) Start() {
	log.Info("Starting service")
	s.wg.Add(1)
	go s.run()
}

// Stop the archiver service event loop. States already queued are written before Stop returns.
func (s *Service) Stop() error {
	log.Info("Stopping service")
	s.cancel()
	s.wg.Wait()
	return nil
}

// Status reports the healthy status of the archiver. Returning nil means the last write
// succeeded.
func (s *Service) Status() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.lastErr
}

// SaveArchivedState queues a copy of the state for archival. States outside the archive
// frequency are skipped. It blocks while the queue is full.
func (s *Service) SaveArchivedState(ctx context.Context, st state.ReadOnlyBeaconState) error {
	if st == nil {
		return errors.New("nil state")
	}
	if s.ctx.Err() != nil {
		return errServiceStopped
	}
	if uint64(slots.ToEpoch(st.Slot()))%s.epochFrequency != 0 {
		return nil
	}
	if c, ok := st.(interface{ Copy() state.BeaconState }); ok {
		st = c.Copy()
	}
	select {
	case s.states <- st:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return errServiceStopped
	}
}

func (s *Service) run() {
	defer s.wg.Done()
	for {
		select {
		case st := <-s.states:
			s.archive(st)
		case <-s.ctx.Done():
			log.Debug("Context closed, flushing queued states")
			for {
				select {
				case st := <-s.states:
					s.archive(st)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) archive(st state.ReadOnlyBeaconState) {
	// The service context may already be closed while flushing.
	err := s.beaconDB.SaveArchivedState(context.Background(), st)
	s.lock.Lock()
	s.lastErr = err
	s.lock.Unlock()
	if err != nil {
		log.WithError(err).WithField("slot", st.Slot()).Error("Could not archive state")
		return
	}
	log.WithFields(logrus.Fields{
		"slot":  st.Slot(),
		"epoch": slots.ToEpoch(st.Slot()),
	}).Debug("Archived post-epoch state")
}
