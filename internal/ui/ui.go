// Package ui defines the page-side collaborators the workflow drives:
// transient notices, the loading indicator, navigation and confirmation.
package ui

import (
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient user-visible notification (a toast).
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(level Level, msg string)
}

// Indicator is the page-level loading indicator. Only the outermost
// user-initiated operation may toggle it.
type Indicator interface {
	Show(text string)
	Hide()
}

type Navigator interface {
	Navigate(path string)
}

type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Always answers every confirmation with the given value.
func Always(answer bool) Confirmer {
	return ConfirmFunc(func(string) bool { return answer })
}

// Loading is a snapshot of the indicator state.
type Loading struct {
	Active bool   `json:"active"`
	Text   string `json:"text,omitempty"`
}

// Recorder implements every collaborator by recording what happened.
// The HTTP surface returns its contents to the browser; tests inspect it.
type Recorder struct {
	mu       sync.Mutex
	notices  []Notice
	active   []string
	shows    int
	location string
	now      func() time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

func (r *Recorder) Notify(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Level: level, Message: msg, At: r.now().UTC()})
}

// Show switches the indicator on. Concurrent operations on one page each
// hold it; it stays on until every Show has been matched by a Hide.
func (r *Recorder) Show(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = append(r.active, text)
	r.shows++
}

func (r *Recorder) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.active) > 0 {
		r.active = r.active[:len(r.active)-1]
	}
}

func (r *Recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.location = path
}

// Drain returns and clears the recorded notices.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	if out == nil {
		return []Notice{}
	}
	return out
}

// Notices returns the recorded notices without clearing them.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice{}, r.notices...)
}

func (r *Recorder) Loading() Loading {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.active) == 0 {
		return Loading{}
	}
	return Loading{Active: true, Text: r.active[len(r.active)-1]}
}

// Shows counts how many times the indicator was switched on.
func (r *Recorder) Shows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shows
}

// Location is the last navigation target.
func (r *Recorder) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

var (
	_ Notifier  = (*Recorder)(nil)
	_ Indicator = (*Recorder)(nil)
	_ Navigator = (*Recorder)(nil)
)
