package player

import (
	"sync"
	"time"
)

// TimerWidget is a headless Widget: instead of rendering video it runs a
// timer for the entry's duration and fires the end callback when it
// elapses. It lets a display process without a real player keep the
// room's queue moving.
type TimerWidget struct {
	mu sync.Mutex

	// resolve maps a video ID to its playback duration.
	resolve func(videoID string) time.Duration

	onEnd   func()
	onError func(code int)

	timer     *time.Timer
	remaining time.Duration
	startedAt time.Time
	videoID   string
	playing   bool
	muted     bool
}

func NewTimerWidget(resolve func(videoID string) time.Duration) *TimerWidget {
	return &TimerWidget{resolve: resolve}
}

// Bind attaches the playback callbacks. Call before Load.
func (w *TimerWidget) Bind(onEnd func(), onError func(code int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onEnd = onEnd
	w.onError = onError
}

func (w *TimerWidget) Load(videoID string) error {
	w.mu.Lock()
	w.stopTimerLocked()

	d := w.resolve(videoID)
	w.videoID = videoID
	w.remaining = d
	w.playing = false

	var onError func(code int)
	if d <= 0 {
		// Unknown duration means the entry cannot be simulated.
		onError = w.onError
		w.videoID = ""
		w.remaining = 0
	}
	w.mu.Unlock()

	// Callbacks are delivered on their own goroutine, like the end timer:
	// the caller may hold locks that the callback wants to take.
	if onError != nil {
		go onError(ErrInvalidParam)
	}
	return nil
}

func (w *TimerWidget) Play() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.playing || w.remaining <= 0 {
		return nil
	}
	w.playing = true
	w.startedAt = time.Now()
	w.timer = time.AfterFunc(w.remaining, w.fireEnd)
	return nil
}

func (w *TimerWidget) Pause() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.playing {
		return nil
	}
	w.stopTimerLocked()
	w.remaining -= time.Since(w.startedAt)
	if w.remaining < 0 {
		w.remaining = 0
	}
	w.playing = false
	return nil
}

func (w *TimerWidget) Mute() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.muted = true
	return nil
}

func (w *TimerWidget) Unmute() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.muted = false
	return nil
}

// Playing reports whether the simulated clock is running.
func (w *TimerWidget) Playing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.playing
}

func (w *TimerWidget) fireEnd() {
	w.mu.Lock()
	w.playing = false
	w.remaining = 0
	onEnd := w.onEnd
	w.mu.Unlock()

	if onEnd != nil {
		onEnd()
	}
}

func (w *TimerWidget) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
