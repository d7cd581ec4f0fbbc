// Package session wires the shell together: the event bus, the local
// transfer engine, the UI loop, the info panel and the services it calls.
// The GUI, the tray companion and the CLI watch modes all start from here.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/driftsync/syncshell/internal/clock"
	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/constants"
	"github.com/driftsync/syncshell/internal/diskspace"
	"github.com/driftsync/syncshell/internal/events"
	"github.com/driftsync/syncshell/internal/infopanel"
	"github.com/driftsync/syncshell/internal/logging"
	"github.com/driftsync/syncshell/internal/loop"
	"github.com/driftsync/syncshell/internal/models"
	"github.com/driftsync/syncshell/internal/notify"
	"github.com/driftsync/syncshell/internal/platform"
	"github.com/driftsync/syncshell/internal/proxy"
	"github.com/driftsync/syncshell/internal/ratelimit"
	"github.com/driftsync/syncshell/internal/settings"
	"github.com/driftsync/syncshell/internal/transfer"
	"github.com/driftsync/syncshell/internal/version"
)

// Options configures a Session.
type Options struct {
	Fs        afero.Fs
	PrefsPath string
	Logger    *logging.Logger

	// Shell overrides the OS integration, for tests.
	Shell platform.Shell

	// Simulate drives the local engine with a synthetic workload.
	Simulate  bool
	Simulator transfer.SimulatorConfig

	// UsedBytes and QuotaBytes seed the storage usage line.
	UsedBytes  int64
	QuotaBytes int64

	// Clock overrides the loop-bound wall clock, for tests.
	Clock clock.Clock
}

// Session owns the long-lived components of one shell process.
type Session struct {
	Bus        *events.EventBus
	Queue      *transfer.Queue
	Simulator  *transfer.Simulator
	Loop       *loop.Loop
	Clock      clock.Clock
	Dispatcher *events.Dispatcher
	Panel      *infopanel.Panel
	Notifier   *notify.Notifier
	Shell      platform.Shell
	Settings   *settings.Model
	Checker    *proxy.ConnectivityChecker
	Bandwidth  *ratelimit.Bandwidth

	opts    Options
	logger  zerolog.Logger
	syncs   atomic.Pointer[[]config.SyncFolder]
	simDone chan struct{}
	wg      sync.WaitGroup
}

// New loads the preferences and builds every component without starting
// any goroutine.
func New(opts Options) (*Session, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.PrefsPath == "" {
		p, err := config.DefaultPreferencesPath()
		if err != nil {
			return nil, err
		}
		opts.PrefsPath = p
	}

	s := &Session{
		opts:    opts,
		logger:  opts.Logger.Component("session"),
		simDone: make(chan struct{}),
	}
	s.Bus = events.NewEventBus(constants.EventBusDefaultBuffer)
	s.Loop = loop.New(constants.LoopQueueSize, opts.Logger.Component("loop"))
	s.Clock = opts.Clock
	if s.Clock == nil {
		s.Clock = clock.NewReal(func(fn func()) { s.Loop.Post(fn) })
	}

	s.Shell = opts.Shell
	if s.Shell == nil {
		s.Shell = platform.New(platform.Options{Fs: opts.Fs, Logger: opts.Logger.Component("platform")})
	}

	prefs, err := config.Load(opts.Fs, opts.PrefsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	s.setSyncs(prefs)

	s.Checker = proxy.NewConnectivityChecker(prefs.Links.ConnectivityURL, opts.Logger.Component("proxy"))
	s.Settings = settings.New(opts.Fs, opts.PrefsPath, prefs,
		settings.WithShell(s.Shell),
		settings.WithEventBus(s.Bus),
		settings.WithProxyCheck(s.Checker),
		settings.WithLogger(opts.Logger.Component("settings")),
	)

	ncfg := notify.DefaultConfig()
	ncfg.Enabled = prefs.General.Notifications
	s.Notifier = notify.NewNotifier(ncfg, opts.Logger)

	s.Queue = transfer.NewQueue(s.Bus, s.Clock)
	if prefs.Transfers.DownloadsPaused || prefs.Transfers.AllPaused {
		_ = s.Queue.PauseTransfers(true, models.Download)
	}
	if prefs.Transfers.UploadsPaused || prefs.Transfers.AllPaused {
		_ = s.Queue.PauseTransfers(true, models.Upload)
	}
	s.Bandwidth = ratelimit.NewBandwidth()
	s.applyBandwidth(prefs)
	s.Queue.SetBandwidth(s.Bandwidth)
	s.Queue.SetSpaceCheck(diskspace.Checker(diskspace.DefaultSafetyMargin))
	if opts.Simulate {
		s.Simulator = transfer.NewSimulator(s.Queue, opts.Simulator)
	}

	s.Panel = infopanel.New(infopanel.Options{
		AppName:  constants.AppName,
		Version:  version.Version,
		Engine:   s.Queue,
		Clock:    s.Clock,
		Bus:      s.Bus,
		Notifier: s.Notifier,
		Shell:    s.Shell,
		Syncs:    s.Syncs,
		Logger:   opts.Logger.Component("infopanel"),
		Paused:   prefs.Transfers.AllPaused,
	})
	s.Panel.OnPausedChanged = s.pausedChanged

	s.Dispatcher = events.NewDispatcher(s.Loop.Post)
	s.Panel.Bind(s.Dispatcher)
	s.Dispatcher.On(events.EventConfigChanged, s.configChanged)
	return s, nil
}

// Syncs returns the active sync folders from the last saved preferences.
// Safe to call from any goroutine.
func (s *Session) Syncs() []config.SyncFolder {
	if p := s.syncs.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *Session) setSyncs(prefs *config.Preferences) {
	active := prefs.ActiveSyncs()
	s.syncs.Store(&active)
}

func (s *Session) applyBandwidth(prefs *config.Preferences) {
	s.Bandwidth.SetLimitKBs(models.Upload, prefs.Bandwidth.UploadLimitKBs)
	s.Bandwidth.SetLimitKBs(models.Download, prefs.Bandwidth.DownloadLimitKBs)
}

// pausedChanged records the global pause toggle. Resuming everything also
// clears the per-direction toggles, as the engine resumed both.
func (s *Session) pausedChanged(paused bool) {
	_, err := config.Update(s.opts.Fs, s.opts.PrefsPath, func(p *config.Preferences) error {
		p.Transfers.AllPaused = paused
		if !paused {
			p.Transfers.DownloadsPaused = false
			p.Transfers.UploadsPaused = false
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Bool("paused", paused).Msg("failed to save pause state")
		return
	}
	s.logger.Debug().Bool("paused", paused).Msg("pause state saved")
}

// configChanged runs on the loop after the settings were saved.
func (s *Session) configChanged(events.Event) {
	prefs, err := config.Load(s.opts.Fs, s.opts.PrefsPath)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to reload preferences")
		return
	}
	s.setSyncs(prefs)
	s.applyBandwidth(prefs)
	s.Notifier.SetEnabled(prefs.General.Notifications)
	s.logger.Debug().Int("syncs", len(s.Syncs())).Msg("preferences reloaded")
}

// Start launches the dispatcher and, when simulating, the synthetic
// workload. The loop itself is run by the front end (see RunLoop).
func (s *Session) Start(ctx context.Context) {
	ch := s.Bus.SubscribeAll()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Dispatcher.Run(ctx, ch)
	}()

	if s.opts.QuotaBytes > 0 {
		s.Bus.Publish(&events.AccountEvent{
			BaseEvent:  events.BaseEvent{EventType: events.EventAccountUpdate, Time: time.Now()},
			UsedBytes:  s.opts.UsedBytes,
			TotalBytes: s.opts.QuotaBytes,
		})
	}

	if s.Simulator == nil {
		close(s.simDone)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.simDone)
		if err := s.Simulator.Run(ctx); err != nil {
			if ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("simulator stopped")
			}
			return
		}
		s.logger.Info().Msg("simulated workload finished")
	}()
}

// SimulationDone is closed when the synthetic workload drained or stopped.
func (s *Session) SimulationDone() <-chan struct{} { return s.simDone }

// RunLoop starts the panel and runs the UI loop until ctx ends. Front ends
// that run the loop themselves (the fyne GUI) skip this.
func (s *Session) RunLoop(ctx context.Context) error {
	s.Loop.Post(s.Panel.Start)
	err := s.Loop.Run(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Close waits for the background goroutines and closes the bus. The context
// passed to Start must already be cancelled.
func (s *Session) Close() {
	s.wg.Wait()
	s.Bus.Close()
	if n := s.Bus.GetDroppedEventCount(); n > 0 {
		s.logger.Warn().Int64("dropped", n).Msg("event bus dropped events for slow subscribers")
	}
}
