package core

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// fakeBackend records every request and delegates the response to handle.
type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handle   func(w http.ResponseWriter, r *http.Request, body []byte)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
	})
	b.mu.Unlock()

	b.handle(w, r, body)
}

func (b *fakeBackend) recorded() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedRequest(nil), b.requests...)
}

func (b *fakeBackend) count(method, path string) int {
	n := 0
	for _, r := range b.recorded() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, body []byte)) (*ElasticClient, *fakeBackend) {
	t.Helper()

	backend := &fakeBackend{handle: handle}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	client, err := elastic.NewClient(
		elastic.SetURL(server.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	require.NoError(t, err)

	return WrapClient(client), backend
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writeException(w http.ResponseWriter, status int, typ, reason string) {
	writeJSON(w, status, fmt.Sprintf(
		`{"error":{"root_cause":[{"type":%q,"reason":%q}],"type":%q,"reason":%q},"status":%d}`,
		typ, reason, typ, reason, status,
	))
}

const acknowledgedTrue = `{"acknowledged":true}`

// bulkLines returns the number of documents in a bulk body: one action line
// plus one source line each.
func bulkLines(body []byte) int {
	lines := bytes.Split(bytes.TrimSpace(body), []byte("\n"))
	return len(lines) / 2
}

func bulkResponse(results ...string) string {
	var buf bytes.Buffer
	buf.WriteString(`{"took":1,"errors":false,"items":[`)
	for i, result := range results {
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, `{"index":{"_index":"book_fr_20210101","_id":"%d","result":%q,"status":201}}`, i, result)
	}
	buf.WriteString(`]}`)
	return buf.String()
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
