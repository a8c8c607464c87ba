package navigator_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/f-sync/followqueue/internal/actionqueue"
	"github.com/f-sync/followqueue/internal/navigator"
)

var testNavigations = []actionqueue.Navigation{
	{ProfileID: "dfb-alice", ProfileURL: "https://www.instagram.com/alice/"},
	{ProfileID: "dfb-bob", ProfileURL: "https://www.instagram.com/bob/"},
	{ProfileID: "dfb-carol", ProfileURL: "https://www.instagram.com/carol/"},
}

func TestWriterPrintsNavigationsInOrder(t *testing.T) {
	var output bytes.Buffer
	if err := navigator.NewWriter(&output).Navigate(context.Background(), testNavigations[:2]); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	expected := "dfb-alice\thttps://www.instagram.com/alice/\ndfb-bob\thttps://www.instagram.com/bob/\n"
	if output.String() != expected {
		t.Fatalf("expected %q, got %q", expected, output.String())
	}
}

func TestDiscardAcceptsEverything(t *testing.T) {
	if err := (navigator.Discard{}).Navigate(context.Background(), testNavigations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSystemBrowserOpensInOrder(t *testing.T) {
	var openedURLs []string
	systemBrowser := navigator.NewSystemBrowser(navigator.SystemBrowserConfig{
		Interval: -1,
		Opener: func(url string) error {
			openedURLs = append(openedURLs, url)
			return nil
		},
	})
	if err := systemBrowser.Navigate(context.Background(), testNavigations); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if len(openedURLs) != len(testNavigations) {
		t.Fatalf("expected %d openings, got %v", len(testNavigations), openedURLs)
	}
	for index, navigation := range testNavigations {
		if openedURLs[index] != navigation.ProfileURL {
			t.Fatalf("opening %d = %s, want %s", index, openedURLs[index], navigation.ProfileURL)
		}
	}
}

func TestSystemBrowserStopsAtFirstFailure(t *testing.T) {
	openerErr := errors.New("no browser")
	openings := 0
	systemBrowser := navigator.NewSystemBrowser(navigator.SystemBrowserConfig{
		Interval: -1,
		Opener: func(string) error {
			openings++
			if openings == 2 {
				return openerErr
			}
			return nil
		},
	})
	err := systemBrowser.Navigate(context.Background(), testNavigations)
	if !errors.Is(err, openerErr) {
		t.Fatalf("expected opener error, got %v", err)
	}
	if openings != 2 {
		t.Fatalf("expected navigation to stop after the failure, got %d openings", openings)
	}
}

func TestSystemBrowserPacesOpenings(t *testing.T) {
	interval := 20 * time.Millisecond
	var openedAt []time.Time
	systemBrowser := navigator.NewSystemBrowser(navigator.SystemBrowserConfig{
		Interval: interval,
		Opener: func(string) error {
			openedAt = append(openedAt, time.Now())
			return nil
		},
	})
	if err := systemBrowser.Navigate(context.Background(), testNavigations); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if elapsed := openedAt[len(openedAt)-1].Sub(openedAt[0]); elapsed < interval {
		t.Fatalf("expected openings to be spaced by at least %s, got %s", interval, elapsed)
	}
}

func TestSystemBrowserHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	systemBrowser := navigator.NewSystemBrowser(navigator.SystemBrowserConfig{
		Interval: time.Hour,
		Opener:   func(string) error { return nil },
	})
	if err := systemBrowser.Navigate(ctx, testNavigations); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestResolveChromeBinaryPath(t *testing.T) {
	t.Setenv(navigator.ChromeBinaryEnvironmentVariable, "/opt/chrome/from-env")

	testCases := []struct {
		name       string
		configured string
		expected   string
	}{
		{name: "configured path wins", configured: " /opt/chrome/configured ", expected: "/opt/chrome/configured"},
		{name: "environment fallback", configured: "", expected: "/opt/chrome/from-env"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			if resolved := navigator.ResolveChromeBinaryPath(testCase.configured); resolved != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, resolved)
			}
		})
	}
}

func TestChromeTabsRejectsNavigationAfterClose(t *testing.T) {
	chromeTabs := navigator.NewChromeTabs(navigator.ChromeTabsConfig{BinaryPath: "/opt/chrome/unused"})
	if chromeTabs.BinaryPath() != "/opt/chrome/unused" {
		t.Fatalf("unexpected binary path %q", chromeTabs.BinaryPath())
	}
	if err := chromeTabs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := chromeTabs.Navigate(context.Background(), testNavigations); !errors.Is(err, navigator.ErrChromeClosed) {
		t.Fatalf("expected ErrChromeClosed, got %v", err)
	}
}
