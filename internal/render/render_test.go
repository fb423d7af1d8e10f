package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/leslieo2/go-status-board/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	cellPattern = regexp.MustCompile(`<td[^>]*>(.*?)</td>`)
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
)

// cells extracts the text of every cell of a row.
func cells(row string) []string {
	var out []string
	for _, m := range cellPattern.FindAllStringSubmatch(row, -1) {
		out = append(out, html.UnescapeString(tagPattern.ReplaceAllString(m[1], "")))
	}
	return out
}

func inner(doc *Document, id string) string {
	return doc.Inners(id)[0]
}

type stubFetcher struct {
	resp  status.Response
	raw   []byte
	err   error
	calls atomic.Int32
}

func (f *stubFetcher) Fetch(ctx context.Context) (status.Response, []byte, error) {
	f.calls.Add(1)
	return f.resp, f.raw, f.err
}

func TestRows_Example(t *testing.T) {
	resp, err := status.Decode([]byte(`{"db": {"up": true}, "cache": {"up": false, "failure_reason": "timeout"}}`))
	require.NoError(t, err)

	serviceRow, statusRow := Rows(resp)

	assert.Equal(t, []string{"Service", "db", "cache"}, cells(serviceRow))
	assert.Equal(t, []string{"Status", "Up", "Down: timeout"}, cells(statusRow))
}

func TestRows_CellCounts(t *testing.T) {
	tests := []struct {
		name string
		resp status.Response
	}{
		{name: "empty", resp: status.Response{}},
		{name: "nil", resp: nil},
		{name: "one", resp: status.Response{{Name: "ecom", Status: status.ServiceStatus{Up: true}}}},
		{
			name: "many",
			resp: status.Response{
				{Name: "bind_dns", Status: status.ServiceStatus{FailureReason: "Lookup Failed"}},
				{Name: "ad_dns", Status: status.ServiceStatus{Up: true}},
				{Name: "smtp", Status: status.ServiceStatus{FailureReason: "Not Polled Yet"}},
				{Name: "pop3", Status: status.ServiceStatus{Up: true}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceRow, statusRow := Rows(tt.resp)
			services := cells(serviceRow)
			stats := cells(statusRow)

			require.Len(t, services, len(tt.resp)+1)
			require.Len(t, stats, len(tt.resp)+1)
			assert.Equal(t, ServiceLabel, services[0])
			assert.Equal(t, StatusLabel, stats[0])
			for i, e := range tt.resp {
				assert.Equal(t, e.Name, services[i+1])
			}
		})
	}
}

func TestRows_UpIgnoresFailureReason(t *testing.T) {
	_, statusRow := Rows(status.Response{
		{Name: "splunk", Status: status.ServiceStatus{Up: true, FailureReason: "Error reading body"}},
	})

	assert.Equal(t, []string{"Status", "Up"}, cells(statusRow))
}

func TestRows_DownContainsReason(t *testing.T) {
	_, statusRow := Rows(status.Response{
		{Name: "ecom", Status: status.ServiceStatus{FailureReason: "Get Failed: 503 Service Unavailable"}},
	})

	got := cells(statusRow)
	require.Len(t, got, 2)
	assert.Contains(t, got[1], "Get Failed: 503 Service Unavailable")
	assert.True(t, strings.HasPrefix(got[1], "Down"))
}

func TestRows_EscapesMarkup(t *testing.T) {
	serviceRow, statusRow := Rows(status.Response{
		{Name: "<b>x</b>", Status: status.ServiceStatus{FailureReason: `<script>alert("x")</script>`}},
	})

	assert.NotContains(t, serviceRow, "<b>")
	assert.NotContains(t, statusRow, "<script>")
	assert.Equal(t, []string{"Service", "<b>x</b>"}, cells(serviceRow))
}

func TestRenderer_Refresh(t *testing.T) {
	fetcher := &stubFetcher{
		resp: status.Response{
			{Name: "db", Status: status.ServiceStatus{Up: true}},
			{Name: "cache", Status: status.ServiceStatus{FailureReason: "timeout"}},
		},
		raw: []byte(`{"db":{"up":true},"cache":{"up":false,"failure_reason":"timeout"}}`),
	}
	doc := NewBoard()
	r := NewRenderer(fetcher, zap.NewNop())

	require.NoError(t, r.Refresh(context.Background(), doc))
	assert.Equal(t, int32(1), fetcher.calls.Load())

	firstServices := inner(doc, constants.MountServiceRow)
	firstStatus := inner(doc, constants.MountStatusRow)
	assert.Equal(t, []string{"Service", "db", "cache"}, cells(firstServices))
	assert.Equal(t, []string{"Status", "Up", "Down: timeout"}, cells(firstStatus))

	// a second pass replaces, it does not append
	require.NoError(t, r.Refresh(context.Background(), doc))
	assert.Equal(t, int32(2), fetcher.calls.Load())
	assert.Equal(t, firstServices, inner(doc, constants.MountServiceRow))
	assert.Equal(t, firstStatus, inner(doc, constants.MountStatusRow))
}

func TestRenderer_RefreshFailureShowsErrorRow(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	doc := NewBoard()
	doc.SetInners(map[string]string{constants.MountStatusRow: "<td>stale</td>"})
	r := NewRenderer(fetcher, nil)

	err := r.Refresh(context.Background(), doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetcher.err)

	assert.Equal(t, "<td>Service</td>", inner(doc, constants.MountServiceRow))
	assert.Equal(t,
		`<td>Status</td><td><div class="alert alert-warning">Unavailable: connection refused</div></td>`,
		inner(doc, constants.MountStatusRow))
}

func TestRenderer_RefreshEmpty(t *testing.T) {
	doc := NewBoard()
	require.NoError(t, NewRenderer(&stubFetcher{resp: status.Response{}}, nil).Refresh(context.Background(), doc))

	assert.Equal(t, "<td>Service</td>", inner(doc, constants.MountServiceRow))
	assert.Equal(t, "<td>Status</td>", inner(doc, constants.MountStatusRow))
}

// flakyFetcher alternates between a one-service response and a failure.
type flakyFetcher struct {
	n atomic.Int64
}

func (f *flakyFetcher) Fetch(ctx context.Context) (status.Response, []byte, error) {
	i := f.n.Add(1)
	time.Sleep(50 * time.Microsecond)
	if i%2 == 0 {
		return nil, nil, fmt.Errorf("fetch %d failed", i)
	}
	return status.Response{{Name: fmt.Sprintf("svc%d", i), Status: status.ServiceStatus{Up: true}}}, nil, nil
}

func TestRenderer_ConcurrentPagesKeepTheirOwnRows(t *testing.T) {
	page, err := NewPage("Service Status")
	require.NoError(t, err)
	r := NewRenderer(&flakyFetcher{}, nil)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				doc := NewBoard()
				refreshErr := r.Refresh(context.Background(), doc)

				var buf bytes.Buffer
				if err := page.Write(&buf, doc); err != nil {
					errs <- err.Error()
					return
				}
				out := buf.String()
				if failed := strings.Contains(out, "Unavailable: "); failed != (refreshErr != nil) {
					errs <- fmt.Sprintf("refresh error %v but page shows %q", refreshErr, out)
					return
				}
				rows := doc.Inners(constants.MountServiceRow, constants.MountStatusRow)
				if refreshErr == nil && len(cells(rows[0])) != len(cells(rows[1])) {
					errs <- "rows from different fetches: " + rows[0] + " / " + rows[1]
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

func TestPage_Write(t *testing.T) {
	page, err := NewPage("Service Status")
	require.NoError(t, err)

	doc := NewBoard()
	fetcher := &stubFetcher{resp: status.Response{{Name: "ecom", Status: status.ServiceStatus{Up: true}}}}
	require.NoError(t, NewRenderer(fetcher, nil).Refresh(context.Background(), doc))

	var buf bytes.Buffer
	require.NoError(t, page.Write(&buf, doc))

	out := buf.String()
	assert.Contains(t, out, `<tr id="service_row"><td>Service</td><td>ecom</td></tr>`)
	assert.Contains(t, out, `<tr id="status_row"><td>Status</td><td><div class="alert alert-success">Up</div></td></tr>`)
	assert.Contains(t, out, "<title>Service Status</title>")
}
