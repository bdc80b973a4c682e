package session

import (
	"time"

	"github.com/xsolare/trip-scheduler-scraper/internal/pacing"
)

// Timing holds every delay and timeout the controller uses. The zero value
// never sleeps, which keeps tests fast without changing control flow.
type Timing struct {
	WarmUpSettle   pacing.Range
	MouseMoves     int
	MouseMoveSteps int
	MouseMovePause pacing.Range

	ClickSteps  int
	ClickJitter float64
	ClickHover  pacing.Range
	ClickPress  pacing.Range

	ScrollStep   float64
	ScrollPause  pacing.Range
	ScrollSettle pacing.Range

	AfterOpen  pacing.Range
	BeforeNext pacing.Range

	NavigationTimeout time.Duration
	CardsTimeout      time.Duration
	CaptchaProbe      time.Duration
	CaptchaWait       time.Duration
	CaptchaPoll       time.Duration
	ConsentTimeout    time.Duration
}

// DefaultTiming returns the production pacing.
func DefaultTiming() Timing {
	return Timing{
		WarmUpSettle:   pacing.Between(3*time.Second, 5*time.Second),
		MouseMoves:     5,
		MouseMoveSteps: 10,
		MouseMovePause: pacing.Between(200*time.Millisecond, 500*time.Millisecond),

		ClickSteps:  20,
		ClickJitter: 0.1,
		ClickHover:  pacing.Between(100*time.Millisecond, 300*time.Millisecond),
		ClickPress:  pacing.Between(80*time.Millisecond, 150*time.Millisecond),

		ScrollStep:   100,
		ScrollPause:  pacing.Between(50*time.Millisecond, 80*time.Millisecond),
		ScrollSettle: pacing.Between(2*time.Second, 4*time.Second),

		AfterOpen:  pacing.Between(4*time.Second, 7*time.Second),
		BeforeNext: pacing.Between(3*time.Second, 6*time.Second),

		NavigationTimeout: 60 * time.Second,
		CardsTimeout:      30 * time.Second,
		CaptchaProbe:      10 * time.Second,
		CaptchaWait:       90 * time.Second,
		CaptchaPoll:       500 * time.Millisecond,
		ConsentTimeout:    2 * time.Second,
	}
}

func (t Timing) scrollStep() float64 {
	if t.ScrollStep <= 0 {
		return 100
	}
	return t.ScrollStep
}

func (t Timing) poll() time.Duration {
	if t.CaptchaPoll <= 0 {
		return 500 * time.Millisecond
	}
	return t.CaptchaPoll
}
