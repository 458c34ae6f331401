package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/async"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/archiver"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/transition"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/db"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/cmd"
	clientstatsflags "github.com/prysmaticlabs/epoch-engine/cmd/client-stats/flags"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/monitoring/backup"
	"github.com/prysmaticlabs/epoch-engine/monitoring/clientstats"
	"github.com/prysmaticlabs/epoch-engine/monitoring/prometheus"
	"github.com/prysmaticlabs/epoch-engine/runtime"
	"github.com/prysmaticlabs/epoch-engine/runtime/prereqs"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var runFlags = struct {
	StatePath      string
	EpochFrequency uint64
}{}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the state archive, metrics, req/resp network and remote monitoring services",
	Flags: []cli.Flag{
		cmd.DataDirFlag,
		cmd.DisableMonitoringFlag,
		cmd.MonitoringHostFlag,
		cmd.MonitoringPortFlag,
		cmd.DisableP2PFlag,
		cmd.P2PHost,
		cmd.P2PTCPPort,
		cmd.StaticPeers,
		clientstatsflags.MonitoringEndpointFlag,
		clientstatsflags.MonitoringIntervalFlag,
		clientstatsflags.MonitoringInitialDelayFlag,
		clientstatsflags.MonitoringRequestTimeoutFlag,
		clientstatsflags.CollectSystemStatsFlag,
		&cli.StringFlag{
			Name:        "state",
			Usage:       "SSZ encoded state to advance by one slot every slot interval",
			Destination: &runFlags.StatePath,
		},
		&cli.Uint64Flag{
			Name:        "archive-epoch-frequency",
			Usage:       "archive every n-th post-epoch state",
			Destination: &runFlags.EpochFrequency,
			Value:       1,
		},
	},
	Action: runAction,
}

func runAction(cliCtx *cli.Context) error {
	ctx, cancel := context.WithCancel(cliCtx.Context)
	defer cancel()

	prereqs.WarnIfPlatformNotSupported(ctx)

	d, err := db.NewDB(ctx, cliCtx.String(cmd.DataDirFlag.Name))
	if err != nil {
		return errors.Wrap(err, "could not open state archive")
	}
	defer closeDB(d)

	registry, err := registerServices(ctx, cliCtx, d)
	if err != nil {
		return err
	}

	registry.StartAll()
	log.Info("Services started")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	select {
	case sig := <-sigc:
		log.WithField("signal", sig).Info("Got interrupt, shutting down")
	case <-ctx.Done():
	}

	if failed := registry.StopAll(); failed > 0 {
		return fmt.Errorf("%d services did not stop cleanly", failed)
	}
	return nil
}

func registerServices(ctx context.Context, cliCtx *cli.Context, d db.Database) (*runtime.ServiceRegistry, error) {
	registry := runtime.NewServiceRegistry()

	archiverSvc := archiver.NewArchiverService(ctx, &archiver.Config{
		BeaconDB:       d,
		EpochFrequency: runFlags.EpochFrequency,
	})
	if err := registry.RegisterService(archiverSvc); err != nil {
		return nil, err
	}

	if runFlags.StatePath != "" {
		st, err := loadState(runFlags.StatePath, forkAuto)
		if err != nil {
			return nil, err
		}
		var sink *archiver.Service
		if err := registry.FetchService(&sink); err != nil {
			return nil, err
		}
		engine, err := transition.NewEngine(transition.WithStateSink(sink))
		if err != nil {
			return nil, err
		}
		period := time.Duration(params.BeaconConfig().SecondsPerSlot) * time.Second
		if err := registry.RegisterService(newSlotDriver(ctx, engine, st, period)); err != nil {
			return nil, err
		}
	}

	if !cliCtx.Bool(cmd.DisableP2PFlag.Name) {
		listen := fmt.Sprintf("/ip4/%s/tcp/%d", cliCtx.String(cmd.P2PHost.Name), cliCtx.Int(cmd.P2PTCPPort.Name))
		p2pSvc, err := p2p.NewService(ctx, &p2p.Config{
			ListenAddrs: []string{listen},
			StaticPeers: cliCtx.StringSlice(cmd.StaticPeers.Name),
			ChainInfo:   &p2p.ArchiveChainInfo{DB: d},
		})
		if err != nil {
			return nil, errors.Wrap(err, "could not create p2p service")
		}
		if err := registry.RegisterService(p2pSvc); err != nil {
			return nil, err
		}
	}

	if cliCtx.Bool(cmd.DisableMonitoringFlag.Name) {
		return registry, nil
	}
	logrus.AddHook(prometheus.NewLogrusCollector())
	addr := fmt.Sprintf("%s:%d", cliCtx.String(cmd.MonitoringHostFlag.Name), cliCtx.Int(cmd.MonitoringPortFlag.Name))
	promSvc := prometheus.NewService(addr, registry, prometheus.Handler{
		Path:    "/db/backup",
		Handler: backup.Handler(d, ""),
	})
	if err := registry.RegisterService(promSvc); err != nil {
		return nil, err
	}

	if cliCtx.String(clientstatsflags.MonitoringEndpointFlag.Name) != "" {
		cfg := clientstatsflags.ConfigFromContext(cliCtx, fmt.Sprintf("http://%s/metrics", addr))
		statsSvc, err := clientstats.NewService(ctx, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "could not create remote monitoring service")
		}
		if err := registry.RegisterService(statsSvc); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// slotDriver advances a state by one slot every period.
type slotDriver struct {
	ctx    context.Context
	cancel context.CancelFunc
	engine *transition.Engine
	period time.Duration

	lock sync.Mutex
	st   state.BeaconState
	err  error
}

func newSlotDriver(ctx context.Context, engine *transition.Engine, st state.BeaconState, period time.Duration) *slotDriver {
	ctx, cancel := context.WithCancel(ctx)
	return &slotDriver{ctx: ctx, cancel: cancel, engine: engine, st: st, period: period}
}

func (d *slotDriver) Start() {
	async.RunEvery(d.ctx, d.period, d.tick)
}

func (d *slotDriver) Stop() error {
	d.cancel()
	return nil
}

func (d *slotDriver) Status() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.err
}

func (d *slotDriver) tick() {
	d.lock.Lock()
	defer d.lock.Unlock()
	post, _, err := d.engine.Advance(d.ctx, d.st, d.st.Slot()+1)
	if err != nil {
		d.err = err
		log.WithError(err).WithField("slot", d.st.Slot()+1).Error("Could not advance state")
		return
	}
	d.st = post
	d.err = nil
}
