package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ListFunc returns the repositories currently registered in the workspace.
type ListFunc func() []string

// Poller triggers a refresh for every registered repository at a fixed
// interval, independent of filesystem events. It is the freshness backstop
// for repositories whose watch could not be established and for events the
// OS dropped.
type Poller struct {
	interval time.Duration
	list     ListFunc
	trigger  TriggerFunc
	logger   *zap.Logger

	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewPoller creates a Poller.
func NewPoller(interval time.Duration, list ListFunc, trigger TriggerFunc, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Poller{
		interval: interval,
		list:     list,
		trigger:  trigger,
		logger:   logger,
	}
}

// Start begins the polling loop. Starting a running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.done = make(chan struct{})

	p.wg.Add(1)
	go p.loop(p.done)
}

// Stop halts the polling loop and waits for it to exit.
// Stopping a stopped poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
}

// loop ticks until done is closed.
func (p *Poller) loop(done <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			repos := p.list()
			p.logger.Debug("poll tick", zap.Int("repos", len(repos)))
			for _, repo := range repos {
				p.trigger(repo)
			}
		}
	}
}
