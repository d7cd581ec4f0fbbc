package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/driftsync/syncshell/internal/models"
)

// SimulatorConfig shapes the synthetic workload.
type SimulatorConfig struct {
	Downloads     int           // transfers to create per direction
	Uploads       int           //
	MaxConcurrent int           // active transfers per direction
	MinSize       int64         // bytes
	MaxSize       int64         // bytes
	BytesPerTick  int64         // upper bound per transfer per tick
	FailureRate   float64       // chance a transfer fails on a given tick
	ScanTicks     int           // ticks spent scanning before the first transfer
	Tick          time.Duration // wall time between steps in Run
	Root          string        // local folder used for synthetic paths
	Seed          uint64
}

// DefaultSimulatorConfig returns a short, mixed workload.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Downloads:     6,
		Uploads:       4,
		MaxConcurrent: 2,
		MinSize:       256 * 1024,
		MaxSize:       24 * 1024 * 1024,
		BytesPerTick:  1536 * 1024,
		FailureRate:   0.01,
		ScanTicks:     8,
		Tick:          250 * time.Millisecond,
		Root:          filepath.Join("DriftSync", "Inbox"),
		Seed:          1,
	}
}

var sampleNames = []string{
	"quarterly-report.pdf", "holiday.JPG", "notes.md", "budget.xlsx",
	"song.mp3", "clip.mov", "archive.zip", "slides.key", "main.go",
	"index.html", "diagram.svg", "README", "photo.heic", "draft.docx",
}

// ErrSimulatedFailure is the error attached to transfers the simulator fails.
var ErrSimulatedFailure = errors.New("simulated transfer failure")

// Simulator feeds a Queue with synthetic transfers so the shell can be
// exercised without a real engine.
type Simulator struct {
	q       *Queue
	cfg     SimulatorConfig
	rng     *rand.Rand
	planned [2]int
	created [2]int
	ticks   int
}

// NewSimulator wraps q. Zero config fields fall back to the defaults.
func NewSimulator(q *Queue, cfg SimulatorConfig) *Simulator {
	def := DefaultSimulatorConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.MinSize <= 0 || cfg.MinSize > cfg.MaxSize {
		cfg.MinSize = cfg.MaxSize / 4
	}
	if cfg.BytesPerTick <= 0 {
		cfg.BytesPerTick = def.BytesPerTick
	}
	if cfg.Tick <= 0 {
		cfg.Tick = def.Tick
	}
	if cfg.Root == "" {
		cfg.Root = def.Root
	}
	return &Simulator{
		q:       q,
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		planned: [2]int{cfg.Downloads, cfg.Uploads},
	}
}

// Done reports whether every planned transfer was created and has finished.
func (s *Simulator) Done() bool {
	for _, d := range models.Directions {
		if s.created[d] < s.planned[d] || s.q.PendingTransfers(d) > 0 {
			return false
		}
	}
	return s.ticks > s.cfg.ScanTicks
}

// Step advances the workload by one tick.
func (s *Simulator) Step() {
	s.ticks++
	if s.ticks <= s.cfg.ScanTicks {
		s.q.SetScanning(true)
		return
	}
	if s.ticks == s.cfg.ScanTicks+1 {
		s.q.SetScanning(false)
	}

	for _, d := range models.Directions {
		s.fill(d)
		s.advance(d)
	}
}

func (s *Simulator) fill(d models.Direction) {
	active := len(s.q.ActiveTags(d))
	for active < s.cfg.MaxConcurrent && s.created[d] < s.planned[d] {
		name := sampleNames[s.rng.IntN(len(sampleNames))]
		if s.created[d] > 0 {
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s-%d%s", name[:len(name)-len(ext)], s.created[d], ext)
		}
		size := s.cfg.MinSize
		if span := s.cfg.MaxSize - s.cfg.MinSize; span > 0 {
			size += s.rng.Int64N(span)
		}
		t := s.q.Add(d, name, filepath.Join(s.cfg.Root, name), size, true)
		_ = s.q.Start(t.Tag)
		s.created[d]++
		active++
	}
}

func (s *Simulator) advance(d models.Direction) {
	for _, tag := range s.q.ActiveTags(d) {
		info, ok := s.q.Task(tag)
		if !ok || info.State != TaskActive {
			continue
		}
		if s.cfg.FailureRate > 0 && s.rng.Float64() < s.cfg.FailureRate {
			_ = s.q.Fail(tag, ErrSimulatedFailure)
			continue
		}
		step := s.q.Bandwidth().Allow(d, 1+s.rng.Int64N(s.cfg.BytesPerTick))
		if step == 0 {
			continue
		}
		next := info.CompletedBytes + step
		if next >= info.Size {
			_ = s.q.Update(tag, info.Size)
			_ = s.q.Complete(tag)
			continue
		}
		_ = s.q.Update(tag, next)
	}
}

// Run steps the simulator every Tick until the workload drains or ctx ends.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Step()
			if s.Done() {
				return nil
			}
		}
	}
}
