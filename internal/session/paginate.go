package session

import (
	"context"
	"fmt"
)

// Terminal is the reason a pagination loop stopped.
type Terminal string

const (
	MaxPagesReached    Terminal = "max_pages_reached"
	NoNextControl      Terminal = "no_next_control"
	CardsNeverAppeared Terminal = "cards_never_appeared"
	NavigationFailed   Terminal = "navigation_failed"
	Cancelled          Terminal = "cancelled"
)

// Diagnostic records a recoverable failure for one page.
type Diagnostic struct {
	Page       int    `json:"page"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Screenshot string `json:"screenshot,omitempty"`
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("page %d: %s: %s", d.Page, d.Kind, d.Message)
	if d.Screenshot != "" {
		s += " (screenshot " + d.Screenshot + ")"
	}
	return s
}

// PaginationResult summarises a pagination loop.
type PaginationResult struct {
	PagesVisited   int
	PagesExtracted int
	Terminal       Terminal
	Diagnostics    []Diagnostic
}

// Visitor extracts records from the page currently shown. An error is logged
// as a diagnostic for that page; it does not stop the loop.
type Visitor func(ctx context.Context, page int) error

// Paginate walks result pages in order, calling visit once per page whose
// card grid appeared. A page whose grid never appears is screenshotted and
// skipped; the loop still follows the next control if there is one.
func (c *Controller) Paginate(ctx context.Context, maxPages int, visit Visitor) PaginationResult {
	var res PaginationResult
	logger := c.log(ctx)

	for current := 1; ; current++ {
		if ctx.Err() != nil {
			res.Terminal = Cancelled
			return res
		}
		res.PagesVisited = current
		logger.Info("processing page", "page", current, "max_pages", maxPages)

		if err := c.RandomMouseMovements(ctx, c.timing.MouseMoves); err != nil && isCancelled(ctx, err) {
			res.Terminal = Cancelled
			return res
		}

		cardsShown := true
		if err := c.page.WaitVisible(ctx, c.sel.Cards, c.timing.CardsTimeout); err != nil {
			if isCancelled(ctx, err) {
				res.Terminal = Cancelled
				return res
			}
			cardsShown = false
			shot := c.Screenshot(ctx, fmt.Sprintf("error_screenshot_page_%d.png", current))
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Page: current, Kind: "cards_timeout", Message: err.Error(), Screenshot: shot})
			logger.Warn("card grid did not appear", "page", current, "error", err)
		} else {
			if err := c.ScrollThrough(ctx); err != nil {
				if isCancelled(ctx, err) {
					res.Terminal = Cancelled
					return res
				}
				logger.Warn("scroll failed", "page", current, "error", err)
			}
			if err := visit(ctx, current); err != nil {
				if isCancelled(ctx, err) {
					res.Terminal = Cancelled
					return res
				}
				res.Diagnostics = append(res.Diagnostics, Diagnostic{Page: current, Kind: "extract", Message: err.Error()})
				logger.Warn("page extraction failed", "page", current, "error", err)
			} else {
				res.PagesExtracted++
			}
		}

		if current >= maxPages {
			logger.Info("page budget reached", "pages", current)
			res.Terminal = MaxPagesReached
			return res
		}

		visible, err := c.page.Visible(ctx, c.sel.Next)
		if err != nil || !visible {
			if cardsShown {
				res.Terminal = NoNextControl
			} else {
				res.Terminal = CardsNeverAppeared
			}
			logger.Info("no next page control, stopping", "page", current)
			return res
		}

		if err := c.pacer.Pause(ctx, c.timing.BeforeNext); err != nil {
			res.Terminal = Cancelled
			return res
		}
		// navCtx releases the navigation listener when the click never lands.
		navCtx, cancelNav := context.WithCancel(ctx)
		wait := c.page.ExpectNavigation(navCtx, c.timing.NavigationTimeout)
		if err := c.HumanClick(ctx, c.sel.Next); err != nil {
			cancelNav()
			return c.stopOnNavigation(ctx, res, current, err)
		}
		err = wait()
		cancelNav()
		if err != nil {
			return c.stopOnNavigation(ctx, res, current, err)
		}
		c.HandleCaptcha(ctx)
	}
}

func (c *Controller) stopOnNavigation(ctx context.Context, res PaginationResult, page int, err error) PaginationResult {
	if isCancelled(ctx, err) {
		res.Terminal = Cancelled
		return res
	}
	res.Terminal = NavigationFailed
	res.Diagnostics = append(res.Diagnostics, Diagnostic{Page: page, Kind: "navigation", Message: err.Error()})
	c.log(ctx).Warn("could not reach next page", "page", page, "error", err)
	return res
}
