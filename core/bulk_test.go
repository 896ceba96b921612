package core

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type book struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

func (b book) ID() string {
	return b.Key
}

func books(n int) []book {
	out := make([]book, n)
	for i := range out {
		out[i] = book{Key: strconv.Itoa(i), Title: "book " + strconv.Itoa(i)}
	}
	return out
}

// createdBackend answers every bulk request with "created" for all items.
func createdBackend(w http.ResponseWriter, r *http.Request, body []byte) {
	writeJSON(w, http.StatusOK, bulkResponse(repeat(resultCreated, bulkLines(body))...))
}

func batchSizes(backend *fakeBackend) []int {
	var sizes []int
	for _, req := range backend.recorded() {
		if req.Path == "/book_fr_20210101/_bulk" {
			sizes = append(sizes, bulkLines(req.Body))
		}
	}
	return sizes
}

func TestInsertDocuments(t *testing.T) {
	client, backend := newTestClient(t, createdBackend)

	count, err := InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(25)))
	require.NoError(t, err)

	assert.Equal(t, 25, count)
	assert.Equal(t, []int{10, 10, 5}, batchSizes(backend))
}

func TestInsertDocumentsRequestCount(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 20, 31} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			client, backend := newTestClient(t, createdBackend)

			count, err := InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(n)))
			require.NoError(t, err)

			assert.Equal(t, n, count)
			assert.Len(t, batchSizes(backend), (n+ChunkSize-1)/ChunkSize)
		})
	}
}

func TestInsertDocumentsBulkBody(t *testing.T) {
	client, backend := newTestClient(t, createdBackend)

	_, err := InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(2)))
	require.NoError(t, err)

	req := backend.recorded()[0]
	assert.Equal(t, http.MethodPost, req.Method)

	lines := bytes.Split(bytes.TrimSpace(req.Body), []byte("\n"))
	require.Len(t, lines, 4)

	var action map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &action))
	require.Contains(t, action, "index")
	assert.Equal(t, "0", action["index"]["_id"])
	assert.JSONEq(t, `{"key":"0","title":"book 0"}`, string(lines[1]))
}

func TestInsertDocumentsCountsOnlyCreated(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		results := repeat(resultCreated, bulkLines(body))
		results[0] = "updated"
		results[1] = "noop"
		writeJSON(w, http.StatusOK, bulkResponse(results...))
	})

	count, err := InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(25)))
	require.NoError(t, err)
	assert.Equal(t, 25-3*2, count)
}

func TestInsertDocumentsFailedBatchContinues(t *testing.T) {
	var mu sync.Mutex
	batch := 0

	client, backend := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		mu.Lock()
		batch++
		current := batch
		mu.Unlock()

		if current == 2 {
			writeException(w, http.StatusBadRequest, "mapper_parsing_exception", "failed to parse field [title]")
			return
		}
		createdBackend(w, r, body)
	})

	count, err := InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(25)))
	require.NoError(t, err)

	assert.Equal(t, 15, count)
	assert.Equal(t, []int{10, 10, 5}, batchSizes(backend))
}

func TestInsertDocumentsFailureWithoutException(t *testing.T) {
	client, backend := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(w, http.StatusServiceUnavailable, ``)
	})

	count, err := InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(12)))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Len(t, batchSizes(backend), 2)
}

func TestInsertDocumentsDropsUnserializable(t *testing.T) {
	client, backend := newTestClient(t, createdBackend)

	docs := []interface{}{
		book{Key: "1"},
		map[string]interface{}{"bad": make(chan int)},
		book{Key: "2"},
	}

	count, err := InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(docs))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []int{2}, batchSizes(backend))
}

func TestInsertDocumentsChunkSize(t *testing.T) {
	client, backend := newTestClient(t, createdBackend)

	count, err := InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(7)), WithChunkSize(3))
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.Equal(t, []int{3, 3, 1}, batchSizes(backend))

	_, err = InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(7)), WithChunkSize(0))
	assert.Equal(t, KindInvalidConfiguration, KindOf(err))

	_, err = InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(7)), WithConcurrency(0))
	assert.Equal(t, KindInvalidConfiguration, KindOf(err))
}

func TestInsertDocumentsConcurrent(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)

	client, backend := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()

		createdBackend(w, r, body)
	})

	count, err := InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(95)), WithConcurrency(3))
	require.NoError(t, err)

	assert.Equal(t, 95, count)
	assert.Len(t, batchSizes(backend), 10)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxSeen, 3)
}

func TestInsertDocumentsSequentialByDefault(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()

		createdBackend(w, r, body)
	})

	count, err := InsertDocuments(context.Background(), client, "book_fr_20210101", slices.Values(books(40)))
	require.NoError(t, err)
	assert.Equal(t, 40, count)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxSeen)
}

func TestInsertDocumentsCancelled(t *testing.T) {
	client, backend := newTestClient(t, createdBackend)

	ctx, cancel := context.WithCancel(context.Background())
	docs := func(yield func(book) bool) {
		for i, b := range books(30) {
			if i == 15 {
				cancel()
			}
			if !yield(b) {
				return
			}
		}
	}

	count, err := InsertDocuments(ctx, client, "book_fr_20210101", docs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, count)
	assert.Equal(t, []int{10}, batchSizes(backend))
}
