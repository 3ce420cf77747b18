// Package labels fetches shipping labels from couriers and hands them to a
// print sink, flagging each order once its label is dispatched.
package labels

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lakerscorp/courier-sync/pkg/courier"
)

// PrintSink receives fetched label assets. Implementations decide what
// dispatching means: writing to a spool directory, forwarding to a print
// server, and so on.
type PrintSink interface {
	// Dispatch delivers one label asset. A nil error means the label is
	// safely out of our hands and may be flagged as printed.
	Dispatch(ctx context.Context, label *courier.FetchLabelResponse) error
}

// FileSink writes labels into a spool directory, one file per tracking id.
// A downstream print agent watches the directory.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink writing into dir, creating it if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating label spool directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Dispatch writes the label to the spool directory. Writes go through a
// temporary file and a rename so the watcher never sees a partial label.
func (s *FileSink) Dispatch(_ context.Context, label *courier.FetchLabelResponse) error {
	name := fmt.Sprintf("%s%s", label.TrackingID, extensionFor(label.ContentType))
	tmp := filepath.Join(s.dir, "."+name+".tmp")
	final := filepath.Join(s.dir, name)

	if err := os.WriteFile(tmp, label.Data, 0o644); err != nil {
		return fmt.Errorf("writing label %s: %w", label.TrackingID, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("publishing label %s: %w", label.TrackingID, err)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "pdf"):
		return ".pdf"
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "zpl"), strings.Contains(contentType, "plain"):
		return ".zpl"
	default:
		return ".bin"
	}
}
