package clientstats

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/async"
	"github.com/prysmaticlabs/epoch-engine/runtime"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultInterval is once a minute plus two seconds to stay under remote rate limits.
	DefaultInterval = 62 * time.Second
	// DefaultInitialDelay lets the process publish some metrics before the first update.
	DefaultInitialDelay = 30 * time.Second
	// DefaultRequestTimeout bounds a single POST to the endpoint.
	DefaultRequestTimeout = 10 * time.Second
)

var _ runtime.Service = (*Service)(nil)

// Config for the client stats service.
type Config struct {
	// Endpoint is the remote URL client stats are posted to.
	Endpoint string
	// MetricsURL is the local prometheus endpoint the stats are scraped from.
	MetricsURL string
	// Interval between two updates.
	Interval time.Duration
	// InitialDelay before the first update.
	InitialDelay time.Duration
	// RequestTimeout bounds each request to the endpoint.
	RequestTimeout time.Duration
	// CollectSystemStats adds the system document to every update.
	CollectSystemStats bool
	// Updater overrides the HTTP updater built from Endpoint.
	Updater Updater
}

// DefaultConfig returns the remote monitoring defaults for the given endpoint
// and metrics URL.
func DefaultConfig(endpoint, metricsURL string) *Config {
	return &Config{
		Endpoint:           endpoint,
		MetricsURL:         metricsURL,
		Interval:           DefaultInterval,
		InitialDelay:       DefaultInitialDelay,
		RequestTimeout:     DefaultRequestTimeout,
		CollectSystemStats: true,
	}
}

// Service periodically scrapes the local metrics endpoint and forwards the
// resulting documents to a remote monitoring endpoint.
type Service struct {
	cfg      *Config
	ctx      context.Context
	cancel   context.CancelFunc
	scrapers []Scraper
	updater  Updater

	lock       sync.RWMutex
	lastErr    error
	lastUpdate time.Time
}

// NewService validates the config and prepares the scrapers.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("nil client stats config")
	}
	if cfg.Endpoint == "" && cfg.Updater == nil {
		return nil, errors.New("no monitoring endpoint configured")
	}
	if cfg.MetricsURL == "" {
		return nil, errors.New("no metrics url configured")
	}
	if cfg.Interval <= 0 {
		return nil, errors.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	updater := cfg.Updater
	if updater == nil {
		updater = NewClientStatsHTTPPostUpdater(cfg.Endpoint, cfg.RequestTimeout)
	}
	scrapers := []Scraper{NewEngineScraper(cfg.MetricsURL)}
	if cfg.CollectSystemStats {
		scrapers = append(scrapers, NewSystemScraper(cfg.MetricsURL))
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Service{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		scrapers: scrapers,
		updater:  updater,
	}, nil
}

// Start schedules the updates.
func (s *Service) Start() {
	log.WithFields(logrus.Fields{
		"endpoint":     s.cfg.Endpoint,
		"interval":     s.cfg.Interval,
		"initialDelay": s.cfg.InitialDelay,
	}).Info("Starting client stats service")
	async.RunEveryAfter(s.ctx, s.cfg.InitialDelay, s.cfg.Interval, s.update)
}

// Stop the service.
func (s *Service) Stop() error {
	s.cancel()
	return nil
}

// Status returns the error of the last update, if any.
func (s *Service) Status() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.lastErr
}

// LastUpdate is the time of the last successful update.
func (s *Service) LastUpdate() time.Time {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.lastUpdate
}

func (s *Service) update() {
	var err error
	for _, sc := range s.scrapers {
		if err = s.scrapeAndUpdate(sc); err != nil {
			break
		}
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.lastErr = err
	if err != nil {
		clientStatsSent.WithLabelValues("failure").Inc()
		log.WithError(err).Warn("Could not send client stats")
		return
	}
	clientStatsSent.WithLabelValues("success").Inc()
	s.lastUpdate = now()
}

func (s *Service) scrapeAndUpdate(sc Scraper) error {
	r, err := sc.Scrape()
	if err != nil {
		return errors.Wrap(err, "could not scrape metrics")
	}
	if err := s.updater.Update(r); err != nil {
		return errors.Wrap(err, "could not post client stats")
	}
	return nil
}
