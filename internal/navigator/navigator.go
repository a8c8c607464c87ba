// Package navigator shows queued profiles to the user.
package navigator

import (
	"context"
	"fmt"
	"io"

	"github.com/f-sync/followqueue/internal/actionqueue"
)

const writerLineFormat = "%s\t%s\n"

var (
	_ actionqueue.Navigator = Discard{}
	_ actionqueue.Navigator = (*Writer)(nil)
	_ actionqueue.Navigator = (*SystemBrowser)(nil)
	_ actionqueue.Navigator = (*ChromeTabs)(nil)
)

// Discard drops navigations. The HTTP server uses it and lets the client open the
// returned URLs.
type Discard struct{}

// Navigate does nothing.
func (Discard) Navigate(context.Context, []actionqueue.Navigation) error {
	return nil
}

// Writer prints one "<id>\t<url>" line per navigation.
type Writer struct {
	output io.Writer
}

// NewWriter returns a Writer printing to output.
func NewWriter(output io.Writer) *Writer {
	return &Writer{output: output}
}

func (writer *Writer) Navigate(ctx context.Context, navigations []actionqueue.Navigation) error {
	for _, navigation := range navigations {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(writer.output, writerLineFormat, navigation.ProfileID, navigation.ProfileURL); err != nil {
			return err
		}
	}
	return nil
}
