package session

import (
	"log"
	"time"

	"github.com/mind-engage/mindcheck/internal/scoring"
)

const (
	DefaultFocusHighlight = 1500 * time.Millisecond
	DefaultNavigateDelay  = 1500 * time.Millisecond
)

type Option func(*options)

type options struct {
	clock          Clock
	scroller       Scroller
	logger         *log.Logger
	focusHighlight time.Duration
	navigateDelay  time.Duration
	onState        func(State)
	onDone         func(scoring.Outcome)
}

func WithClock(c Clock) Option                  { return func(o *options) { o.clock = c } }
func WithScroller(s Scroller) Option            { return func(o *options) { o.scroller = s } }
func WithLogger(l *log.Logger) Option           { return func(o *options) { o.logger = l } }
func WithFocusHighlight(d time.Duration) Option { return func(o *options) { o.focusHighlight = d } }
func WithNavigateDelay(d time.Duration) Option  { return func(o *options) { o.navigateDelay = d } }

// OnStateChange registers an observer for submission state transitions.
// It is called synchronously, outside the session lock.
func OnStateChange(fn func(State)) Option { return func(o *options) { o.onState = fn } }

// OnDone is called once, NavigateDelay after a successful submit, unless the
// session is closed first. fn runs on a session goroutine and must not call
// Close.
func OnDone(fn func(scoring.Outcome)) Option { return func(o *options) { o.onDone = fn } }

func defaultOptions() options {
	return options{
		clock:          WallClock{},
		scroller:       noScroll{},
		logger:         log.Default(),
		focusHighlight: DefaultFocusHighlight,
		navigateDelay:  DefaultNavigateDelay,
	}
}
