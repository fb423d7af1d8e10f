package render

import (
	"context"
	"fmt"

	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/leslieo2/go-status-board/internal/status"
	"go.uber.org/zap"
)

// Fetcher retrieves the current status response from the status endpoint.
// raw is the undecoded body, kept for diagnostics.
type Fetcher interface {
	Fetch(ctx context.Context) (resp status.Response, raw []byte, err error)
}

// Renderer fills a document's two rows from the status endpoint. It holds
// no page state, so one Renderer serves any number of concurrent pages.
type Renderer struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewRenderer creates a renderer reading from fetcher.
func NewRenderer(fetcher Fetcher, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{fetcher: fetcher, logger: logger}
}

// NewBoard returns an empty document with the service and status rows.
func NewBoard() *Document {
	return NewDocument(constants.MountServiceRow, constants.MountStatusRow)
}

// Refresh performs one request to the status endpoint and replaces both
// rows of doc with the result. On failure doc gets an explicit error row
// and the error is returned; nothing is retried.
func (r *Renderer) Refresh(ctx context.Context, doc *Document) error {
	resp, raw, err := r.fetcher.Fetch(ctx)
	if err != nil {
		serviceRow, statusRow := ErrorRows(err)
		mount(doc, serviceRow, statusRow)
		r.logger.Warn("Status endpoint unavailable", zap.Error(err))
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	r.logger.Debug("Status response", zap.Strings("services", resp.Names()), zap.ByteString("body", raw))

	serviceRow, statusRow := Rows(resp)
	mount(doc, serviceRow, statusRow)
	return nil
}

func mount(doc *Document, serviceRow, statusRow string) {
	doc.SetInners(map[string]string{
		constants.MountServiceRow: serviceRow,
		constants.MountStatusRow:  statusRow,
	})
}
