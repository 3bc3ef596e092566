// Package player drives playback of the shared queue through a video
// widget: it loads the current entry, advances on end, and recovers from
// the widget's error codes where recovery is possible.
package player

import (
	"log"
	"sync"
	"time"

	"github.com/jiwonMe/slamslam/internal/client"
	"github.com/jiwonMe/slamslam/internal/ytid"
)

// Widget is the playback surface. The production widget is an embedded
// video player; tests and the headless display use stand-ins.
type Widget interface {
	Load(videoID string) error
	Play() error
	Pause() error
	Mute() error
	Unmute() error
}

// Widget error codes, matching the embedded player's API.
const (
	ErrInvalidParam     = 2
	ErrHTML5            = 5
	ErrNotFound         = 100
	ErrNotEmbeddable    = 101
	ErrNotEmbeddableAlt = 150
)

var errorMessages = map[int]string{
	ErrInvalidParam:     "invalid video parameter",
	ErrHTML5:            "playback error, retrying",
	ErrNotFound:         "video not found or removed",
	ErrNotEmbeddable:    "video cannot be embedded",
	ErrNotEmbeddableAlt: "video cannot be embedded",
}

// Only transient HTML5 player errors are worth retrying; the rest mean
// the video itself is unplayable.
var retryable = map[int]bool{
	ErrHTML5: true,
}

const maxErrorRetries = 3

// Controller binds a Widget to the queue state.
type Controller struct {
	mu         sync.Mutex
	widget     Widget
	state      *client.State
	playing    bool
	muted      bool
	retries    int
	errMsg     string
	currentID  string
	retryDelay time.Duration
}

func NewController(widget Widget, state *client.State) *Controller {
	return &Controller{
		widget:     widget,
		state:      state,
		retryDelay: 2 * time.Second,
	}
}

// Start loads the current entry and begins playback if the queue is
// non-empty.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadCurrentLocked() {
		c.playLocked()
	}
}

// LoadCurrent (re)loads whatever the queue says is current, without
// changing the play/pause state.
func (c *Controller) LoadCurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadCurrentLocked()
}

// EnsureLoaded loads the current entry only when nothing is loaded yet.
// Called when the first entry lands in an empty queue.
func (c *Controller) EnsureLoaded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentID != "" {
		return
	}
	if c.loadCurrentLocked() {
		c.playLocked()
	}
}

// TogglePlay flips between play and pause. It reports the new playing
// state.
func (c *Controller) TogglePlay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing {
		if err := c.widget.Pause(); err != nil {
			log.Printf("player: pause: %v", err)
			return c.playing
		}
		c.playing = false
	} else {
		c.playLocked()
	}
	return c.playing
}

// ToggleMute flips the mute state and reports the new value.
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.muted {
		err = c.widget.Unmute()
	} else {
		err = c.widget.Mute()
	}
	if err != nil {
		log.Printf("player: mute toggle: %v", err)
		return c.muted
	}
	c.muted = !c.muted
	return c.muted
}

// Skip jumps to the next entry immediately.
func (c *Controller) Skip() {
	c.advance()
}

// OnMediaEnd advances to the next entry when the current one finishes.
func (c *Controller) OnMediaEnd() {
	c.advance()
}

func (c *Controller) advance() {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, ok := c.state.Advance()
	if !ok {
		c.currentID = ""
		c.playing = false
		return
	}
	c.retries = 0
	c.loadEntryLocked(next)
	c.playLocked()
}

// OnWidgetError handles a widget error code. Transient errors get a
// bounded number of delayed reloads. Anything else, or an exhausted
// retry budget, stops playback and leaves the error message displayed;
// the queue only moves again on a skip or a queue change.
func (c *Controller) OnWidgetError(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, known := errorMessages[code]
	if !known {
		msg = "unknown playback error"
	}
	c.errMsg = msg
	log.Printf("player: widget error %d: %s", code, msg)

	if !retryable[code] || c.retries >= maxErrorRetries {
		c.playing = false
		return
	}

	c.retries++
	id := c.currentID
	time.AfterFunc(c.retryDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.currentID != id {
			return
		}
		if err := c.widget.Load(id); err != nil {
			log.Printf("player: retry load: %v", err)
			return
		}
		c.playLocked()
	})
}

// ErrorMessage returns the message for the most recent widget error.
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) loadCurrentLocked() bool {
	cur, ok := c.state.Current()
	if !ok {
		c.currentID = ""
		c.playing = false
		return false
	}
	c.retries = 0
	return c.loadEntryLocked(cur)
}

func (c *Controller) loadEntryLocked(e client.Entry) bool {
	videoID, ok := ytid.ExtractVideoID(e.URL)
	if !ok {
		log.Printf("player: entry %s has unplayable url %q", e.ID, e.URL)
		return false
	}
	if err := c.widget.Load(videoID); err != nil {
		log.Printf("player: load %s: %v", videoID, err)
		return false
	}
	c.currentID = videoID
	return true
}

func (c *Controller) playLocked() {
	if err := c.widget.Play(); err != nil {
		log.Printf("player: play: %v", err)
		return
	}
	c.playing = true
}
