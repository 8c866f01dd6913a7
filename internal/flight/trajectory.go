package flight

import "github.com/flightlab/boostersim/pkg/core"

// Trajectory is a fixed-capacity ring of position samples. When full the
// oldest sample is overwritten.
type Trajectory struct {
	buf   []core.TrajectorySample
	start int
	n     int
}

func NewTrajectory(capacity int) *Trajectory {
	if capacity < 1 {
		capacity = 1
	}
	return &Trajectory{buf: make([]core.TrajectorySample, capacity)}
}

func (t *Trajectory) Cap() int { return len(t.buf) }
func (t *Trajectory) Len() int { return t.n }

// Append adds a sample, evicting the oldest if the buffer is full.
func (t *Trajectory) Append(s core.TrajectorySample) {
	if t.n < len(t.buf) {
		t.buf[(t.start+t.n)%len(t.buf)] = s
		t.n++
		return
	}
	t.buf[t.start] = s
	t.start = (t.start + 1) % len(t.buf)
}

// Samples returns a copy ordered oldest to newest.
func (t *Trajectory) Samples() []core.TrajectorySample {
	out := make([]core.TrajectorySample, t.n)
	for i := range out {
		out[i] = t.buf[(t.start+i)%len(t.buf)]
	}
	return out
}

// Last returns the newest sample.
func (t *Trajectory) Last() (core.TrajectorySample, bool) {
	if t.n == 0 {
		return core.TrajectorySample{}, false
	}
	return t.buf[(t.start+t.n-1)%len(t.buf)], true
}

func (t *Trajectory) Clear() {
	t.start, t.n = 0, 0
}
