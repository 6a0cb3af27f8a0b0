package throttle

import (
	"sync"
	"time"
)

// Stats is one progress sample.
type Stats struct {
	Bytes      int64
	Ceiling    int64 // 0 means no known ceiling
	RatePerSec float64
	ETA        time.Duration // 0 when no ceiling, so no ETA can be computed
}

// Reporter receives progress samples; the job controller supplies one
// that logs each sample through its slog logger.
type Reporter func(Stats)

// Progress emits Stats at a fixed interval for the lifetime of a job
//. It is safe to call Observe from multiple writer workers.
type Progress struct {
	mu        sync.Mutex
	bytes     int64
	ceiling   int64
	lastBytes int64
	lastTime  time.Time
	start     time.Time

	interval time.Duration
	report   Reporter
	stop     chan struct{}
	done     chan struct{}
}

// NewProgress starts the periodic reporter. Call Stop when the job ends.
func NewProgress(interval time.Duration, ceiling int64, report Reporter) *Progress {
	if interval <= 0 || report == nil {
		return nil
	}
	now := time.Now()
	p := &Progress{
		ceiling:  ceiling,
		lastTime: now,
		start:    now,
		interval: interval,
		report:   report,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Progress) loop() {
	defer close(p.done)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			p.emit()
		case <-p.stop:
			return
		}
	}
}

// Observe records additional bytes written; called from the writer
// backend's critical section or atomically from pipeline/multi-writer.
func (p *Progress) Observe(n int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.bytes += int64(n)
	p.mu.Unlock()
}

func (p *Progress) emit() {
	p.mu.Lock()
	bytes := p.bytes
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	delta := bytes - p.lastBytes
	p.lastBytes = bytes
	p.lastTime = now
	ceiling := p.ceiling
	p.mu.Unlock()

	var rate float64
	if elapsed > 0 {
		rate = float64(delta) / elapsed.Seconds()
	}

	var eta time.Duration
	if ceiling > 0 && rate > 0 {
		remaining := ceiling - bytes
		if remaining > 0 {
			eta = time.Duration(float64(remaining)/rate) * time.Second
		}
	}

	p.report(Stats{Bytes: bytes, Ceiling: ceiling, RatePerSec: rate, ETA: eta})
}

// Stop ends the reporter goroutine and emits one final sample.
func (p *Progress) Stop() {
	if p == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.emit()
}
