package navigator

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/browser"
	"golang.org/x/time/rate"

	"github.com/f-sync/followqueue/internal/actionqueue"
)

const (
	// DefaultNavigationInterval spaces consecutive tab openings so popup blockers
	// and the browser keep up with a batch.
	DefaultNavigationInterval = 300 * time.Millisecond

	errMessageOpenURL = "open profile"
)

// URLOpener opens a single URL.
type URLOpener func(url string) error

// SystemBrowserConfig configures a SystemBrowser.
type SystemBrowserConfig struct {
	// Interval is the minimum delay between two openings. Negative disables pacing;
	// zero selects DefaultNavigationInterval.
	Interval time.Duration
	// Opener replaces the default browser launcher.
	Opener URLOpener
}

// SystemBrowser opens profiles in the operating system's default browser, one
// after another in the given order.
type SystemBrowser struct {
	opener  URLOpener
	limiter *rate.Limiter
}

// NewSystemBrowser constructs a SystemBrowser.
func NewSystemBrowser(configuration SystemBrowserConfig) *SystemBrowser {
	opener := configuration.Opener
	if opener == nil {
		opener = browser.OpenURL
	}
	interval := configuration.Interval
	if interval == 0 {
		interval = DefaultNavigationInterval
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &SystemBrowser{opener: opener, limiter: rate.NewLimiter(limit, 1)}
}

func (systemBrowser *SystemBrowser) Navigate(ctx context.Context, navigations []actionqueue.Navigation) error {
	for _, navigation := range navigations {
		if err := systemBrowser.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := systemBrowser.opener(navigation.ProfileURL); err != nil {
			return fmt.Errorf("%s %s: %w", errMessageOpenURL, navigation.ProfileID, err)
		}
	}
	return nil
}
