package vcf

import "sync/atomic"

// Diagnostics counts engine events. The audio thread writes, any goroutine
// may read.
type Diagnostics struct {
	blocks          atomic.Uint64
	samples         atomic.Uint64
	solves          atomic.Uint64
	nonConverged    atomic.Uint64
	maxIterations   atomic.Uint64
	sanitized       atomic.Uint64
	unprepared      atomic.Uint64
	droppedChannels atomic.Uint64
}

// DiagnosticsSnapshot is a point-in-time copy of the counters.
type DiagnosticsSnapshot struct {
	// Blocks and Samples count processed host blocks and host samples per
	// channel.
	Blocks  uint64
	Samples uint64
	// Solves counts ladder solves at the oversampled rate.
	Solves uint64
	// NonConverged counts solves that hit the iteration cap.
	NonConverged uint64
	// MaxIterations is the largest iteration count seen by one solve.
	MaxIterations uint64
	// Sanitized counts non-finite samples replaced by silence.
	Sanitized uint64
	// Unprepared counts process calls made before Prepare.
	Unprepared uint64
	// DroppedChannels counts channel buffers beyond the prepared count that
	// were silenced.
	DroppedChannels uint64
}

// Snapshot returns the current counter values.
func (d *Diagnostics) Snapshot() DiagnosticsSnapshot {
	return DiagnosticsSnapshot{
		Blocks:          d.blocks.Load(),
		Samples:         d.samples.Load(),
		Solves:          d.solves.Load(),
		NonConverged:    d.nonConverged.Load(),
		MaxIterations:   d.maxIterations.Load(),
		Sanitized:       d.sanitized.Load(),
		Unprepared:      d.unprepared.Load(),
		DroppedChannels: d.droppedChannels.Load(),
	}
}

// blockStats accumulates per-block counts on the audio thread so the
// shared counters are touched once per block.
type blockStats struct {
	samples       uint64
	solves        uint64
	nonConverged  uint64
	maxIterations uint64
	sanitized     uint64
	dropped       uint64
}

func (d *Diagnostics) publish(s *blockStats) {
	d.blocks.Add(1)
	d.samples.Add(s.samples)
	d.solves.Add(s.solves)

	if s.nonConverged > 0 {
		d.nonConverged.Add(s.nonConverged)
	}

	if s.sanitized > 0 {
		d.sanitized.Add(s.sanitized)
	}

	if s.dropped > 0 {
		d.droppedChannels.Add(s.dropped)
	}

	for {
		cur := d.maxIterations.Load()
		if s.maxIterations <= cur || d.maxIterations.CompareAndSwap(cur, s.maxIterations) {
			return
		}
	}
}
