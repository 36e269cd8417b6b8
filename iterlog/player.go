package iterlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the playback state.
type State string

const (
	Stopped State = "stopped"
	Playing State = "playing"
	Paused  State = "paused"
)

// DefaultSpeed is the delay between steps during Run.
const DefaultSpeed = 500 * time.Millisecond

var (
	// ErrInvalidTransition is returned for a move the state table forbids.
	ErrInvalidTransition = errors.New("iterlog: invalid playback transition")

	// ErrNoLog is returned by Play when nothing is loaded.
	ErrNoLog = errors.New("iterlog: no log loaded")

	// ErrEmptyLog is returned by Load for a log without steps.
	ErrEmptyLog = errors.New("iterlog: log has no steps")

	// ErrBadSpeed is returned by SetSpeed for a non-positive delay.
	ErrBadSpeed = errors.New("iterlog: speed must be positive")
)

func isAllowedTransition(from, to State) bool {
	switch from {
	case Stopped:
		return to == Playing
	case Playing:
		return to == Paused || to == Stopped
	case Paused:
		return to == Playing || to == Stopped
	default:
		return false
	}
}

// Player indexes a loaded Log. It holds no numeric state of its own.
type Player struct {
	mu    sync.Mutex
	state State
	log   *Log
	index int
	speed time.Duration
}

// NewPlayer returns a stopped player with DefaultSpeed.
func NewPlayer() *Player {
	return &Player{state: Stopped, speed: DefaultSpeed}
}

func (p *Player) transition(to State) error {
	if !isAllowedTransition(p.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, to)
	}
	p.state = to
	return nil
}

// Load attaches log to a stopped player, replacing any previous one.
func (p *Player) Load(log *Log) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Stopped {
		return fmt.Errorf("%w: load while %s", ErrInvalidTransition, p.state)
	}
	if log.Len() == 0 {
		return ErrEmptyLog
	}
	p.log = log
	p.index = 0
	return nil
}

// Play starts or resumes playback.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.log == nil {
		return ErrNoLog
	}
	return p.transition(Playing)
}

// Pause freezes the index.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transition(Paused)
}

// Stop resets the index and releases the log.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.transition(Stopped); err != nil {
		return err
	}
	p.index = 0
	p.log = nil
	return nil
}

// SetSpeed sets the delay between steps used by Run.
func (p *Player) SetSpeed(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: %v", ErrBadSpeed, d)
	}
	p.mu.Lock()
	p.speed = d
	p.mu.Unlock()
	return nil
}

// Speed returns the delay between steps.
func (p *Player) Speed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Index returns the position of the next step to emit.
func (p *Player) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Current returns the step under the playback cursor while a log is loaded:
// the next step Tick will emit, or the last step once the log is exhausted.
// After Seek(i) it is step i.
func (p *Player) Current() (Step, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.log == nil {
		return Step{}, false
	}
	i := p.index
	if i >= p.log.Len() {
		i = p.log.Len() - 1
	}
	s, err := p.log.Step(i)
	return s, err == nil
}

// Tick emits the step at the index and advances it. It returns false when
// not playing or when the log is exhausted. Emitting the last step pauses
// playback; Current keeps returning that step until Stop.
func (p *Player) Tick() (Step, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing || p.index >= p.log.Len() {
		return Step{}, false
	}
	s, _ := p.log.Step(p.index)
	p.index++
	if p.index == p.log.Len() {
		p.state = Paused
	}
	return s, true
}

// Seek moves the index to i without changing the state. Only valid while a
// log is loaded.
func (p *Player) Seek(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.log == nil {
		return ErrNoLog
	}
	if i < 0 || i >= p.log.Len() {
		return fmt.Errorf("%w: %d of %d", ErrStepOutOfRange, i, p.log.Len())
	}
	p.index = i
	return nil
}

// Run ticks at the configured speed and calls fn with every emitted step
// until playback leaves the playing state or ctx ends. Pausing ends Run;
// a later Play needs a new Run.
func (p *Player) Run(ctx context.Context, fn func(Step)) error {
	ticker := time.NewTicker(p.Speed())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s, ok := p.Tick()
			if !ok {
				return nil
			}
			if fn != nil {
				fn(s)
			}
			if p.State() != Playing {
				return nil
			}
			ticker.Reset(p.Speed())
		}
	}
}
