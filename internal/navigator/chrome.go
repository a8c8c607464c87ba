package navigator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/f-sync/followqueue/internal/actionqueue"
)

const (
	chromeBinaryEnvironmentVariable = "CHROME_BIN"
	chromeBinaryPathMacOS           = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	chromeBinaryPathLinux           = "/usr/bin/google-chrome"
	chromeBinaryNameLinux           = "google-chrome"
	chromeBinaryPathChromium        = "/usr/bin/chromium"
	chromeBinaryNameChromium        = "chromium"
	chromeHeadlessFlag              = "headless"
	chromeStartMaximizedFlag        = "start-maximized"
	chromeDisableAutomationFlag     = "disable-blink-features"
	chromeDisableAutomationValue    = "AutomationControlled"
	errMessageStartChrome           = "start chrome"
	errMessageNavigateTab           = "navigate tab"
	errMessageChromeClosed          = "chrome navigator is closed"

	// ChromeBinaryEnvironmentVariable names the variable that overrides Chrome discovery.
	ChromeBinaryEnvironmentVariable = chromeBinaryEnvironmentVariable
)

// ErrChromeClosed indicates navigation through a ChromeTabs navigator after Close.
var ErrChromeClosed = errors.New(errMessageChromeClosed)

var defaultChromeBinaryCandidates = []string{
	chromeBinaryPathMacOS,
	chromeBinaryPathLinux,
	chromeBinaryNameLinux,
	chromeBinaryPathChromium,
	chromeBinaryNameChromium,
}

// ChromeTabsConfig configures a ChromeTabs navigator.
type ChromeTabsConfig struct {
	BinaryPath string
}

// ChromeTabs drives a visible Chrome window and opens each profile in its own tab.
// The browser is launched on first use and stays open until Close.
type ChromeTabs struct {
	binaryPath string

	mutex          sync.Mutex
	browserContext context.Context
	tabCancels     []context.CancelFunc
	closed         bool
}

// NewChromeTabs constructs a ChromeTabs navigator.
func NewChromeTabs(configuration ChromeTabsConfig) *ChromeTabs {
	return &ChromeTabs{binaryPath: ResolveChromeBinaryPath(configuration.BinaryPath)}
}

// BinaryPath returns the Chrome executable the navigator launches. Empty means
// chromedp's own discovery.
func (chromeTabs *ChromeTabs) BinaryPath() string {
	return chromeTabs.binaryPath
}

func (chromeTabs *ChromeTabs) Navigate(ctx context.Context, navigations []actionqueue.Navigation) error {
	chromeTabs.mutex.Lock()
	defer chromeTabs.mutex.Unlock()

	if chromeTabs.closed {
		return ErrChromeClosed
	}
	if err := chromeTabs.ensureBrowser(); err != nil {
		return fmt.Errorf("%s: %w", errMessageStartChrome, err)
	}

	for _, navigation := range navigations {
		if err := ctx.Err(); err != nil {
			return err
		}
		tabContext, cancelTab := chromedp.NewContext(chromeTabs.browserContext)
		chromeTabs.tabCancels = append(chromeTabs.tabCancels, cancelTab)
		if err := chromedp.Run(tabContext, chromedp.Navigate(navigation.ProfileURL)); err != nil {
			return fmt.Errorf("%s %s: %w", errMessageNavigateTab, navigation.ProfileID, err)
		}
	}
	return nil
}

// Close closes every tab and shuts the browser down.
func (chromeTabs *ChromeTabs) Close() error {
	chromeTabs.mutex.Lock()
	defer chromeTabs.mutex.Unlock()

	chromeTabs.closed = true
	for index := len(chromeTabs.tabCancels) - 1; index >= 0; index-- {
		chromeTabs.tabCancels[index]()
	}
	chromeTabs.tabCancels = nil
	chromeTabs.browserContext = nil
	return nil
}

func (chromeTabs *ChromeTabs) ensureBrowser() error {
	if chromeTabs.browserContext != nil {
		return nil
	}

	allocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag(chromeHeadlessFlag, false),
		chromedp.Flag(chromeStartMaximizedFlag, true),
		chromedp.Flag(chromeDisableAutomationFlag, chromeDisableAutomationValue),
	)
	if chromeTabs.binaryPath != "" {
		allocatorOptions = append(allocatorOptions, chromedp.ExecPath(chromeTabs.binaryPath))
	}

	allocatorContext, cancelAllocator := chromedp.NewExecAllocator(context.Background(), allocatorOptions...)
	browserContext, cancelBrowser := chromedp.NewContext(allocatorContext)
	if err := chromedp.Run(browserContext); err != nil {
		cancelBrowser()
		cancelAllocator()
		return err
	}

	chromeTabs.browserContext = browserContext
	chromeTabs.tabCancels = append(chromeTabs.tabCancels, cancelAllocator, cancelBrowser)
	return nil
}

// ResolveChromeBinaryPath picks the Chrome executable: the configured path, then
// CHROME_BIN, then the first well-known location found on this machine. It returns
// an empty string when nothing is found.
func ResolveChromeBinaryPath(configuredPath string) string {
	if trimmed := strings.TrimSpace(configuredPath); trimmed != "" {
		return trimmed
	}
	if environmentValue := strings.TrimSpace(os.Getenv(ChromeBinaryEnvironmentVariable)); environmentValue != "" {
		return environmentValue
	}
	for _, candidate := range defaultChromeBinaryCandidates {
		if resolvedPath, lookErr := exec.LookPath(candidate); lookErr == nil {
			return resolvedPath
		}
	}
	return ""
}
