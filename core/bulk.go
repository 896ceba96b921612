package core

import (
	"context"
	"encoding/json"
	"iter"
	"sync"

	"github.com/olivere/elastic/v7"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ChunkSize is the default number of documents sent per bulk request.
const ChunkSize = 10

const resultCreated = "created"

type bulkOptions struct {
	chunkSize   int
	concurrency int
}

// BulkOption tunes InsertDocuments.
type BulkOption func(*bulkOptions)

// WithChunkSize sets the number of documents per bulk request.
func WithChunkSize(size int) BulkOption {
	return func(o *bulkOptions) {
		o.chunkSize = size
	}
}

// WithConcurrency sets how many bulk requests may be in flight at once.
// The default of 1 sends batches strictly one after the other.
func WithConcurrency(n int) BulkOption {
	return func(o *bulkOptions) {
		o.concurrency = n
	}
}

// InsertDocuments streams docs into index in bulk requests and returns the
// number of documents the backend reported as created.
//
// A batch the backend rejects is logged and not counted; ingestion carries
// on with the next batch. Documents that cannot be serialized are dropped.
// When ctx is done no further documents are pulled: in-flight batches
// complete and the count so far is returned together with ctx.Err().
func InsertDocuments[D any](
	ctx context.Context,
	c *ElasticClient,
	index string,
	docs iter.Seq[D],
	opts ...BulkOption,
) (int, error) {

	o := bulkOptions{chunkSize: ChunkSize, concurrency: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkSize < 1 {
		return 0, newErrorf(KindInvalidConfiguration, "invalid bulk chunk size %d", o.chunkSize)
	}
	if o.concurrency < 1 {
		return 0, newErrorf(KindInvalidConfiguration, "invalid bulk concurrency %d", o.concurrency)
	}

	created := atomic.NewInt64(0)
	send := func(requests []elastic.BulkableRequest) {
		created.Add(int64(c.insertBatch(ctx, index, requests)))
	}

	var (
		pool *ants.Pool
		wg   sync.WaitGroup
	)
	if o.concurrency > 1 {
		var err error
		if pool, err = ants.NewPool(o.concurrency); err != nil {
			return 0, &Error{Kind: KindInvalidConfiguration, Details: "bulk worker pool", cause: err}
		}
		defer pool.Release()
	}

	dispatch := func(requests []elastic.BulkableRequest) {
		if len(requests) == 0 {
			return
		}
		if pool == nil {
			send(requests)
			return
		}

		wg.Add(1)
		// blocks while every worker is busy
		if err := pool.Submit(func() {
			defer wg.Done()
			send(requests)
		}); err != nil {
			wg.Done()
			zlog.Warn("bulk batch not submitted",
				zap.String("index", index),
				zap.Int("documents", len(requests)),
				zap.Error(err),
			)
		}
	}

	var (
		ctxErr  error
		pulled  int
		batch   = make([]elastic.BulkableRequest, 0, o.chunkSize)
		nthItem int
	)

	for doc := range docs {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}

		nthItem++
		pulled++
		if request, err := bulkIndexRequest(doc); err != nil {
			zlog.Warn("document dropped",
				zap.String("index", index),
				zap.Int("item", nthItem),
				zap.Error(err),
			)
		} else {
			batch = append(batch, request)
		}

		if pulled == o.chunkSize {
			dispatch(batch)
			batch = make([]elastic.BulkableRequest, 0, o.chunkSize)
			pulled = 0
		}
	}

	if ctxErr == nil {
		dispatch(batch)
	}
	wg.Wait()

	count := int(created.Load())
	zlog.Info("documents inserted",
		zap.String("index", index),
		zap.Int("documents", nthItem),
		zap.Int("created", count),
	)

	return count, ctxErr
}

func bulkIndexRequest[D any](doc D) (*elastic.BulkIndexRequest, error) {
	source, err := json.Marshal(doc)
	if err != nil {
		return nil, &Error{
			Kind:    KindResponseDeserialization,
			Details: "could not serialize document",
			cause:   err,
		}
	}

	request := elastic.NewBulkIndexRequest().Doc(json.RawMessage(source))
	if provider, ok := any(doc).(IDProvider); ok {
		if id := provider.ID(); id != "" {
			request = request.Id(id)
		}
	}

	return request, nil
}

// insertBatch sends one bulk request and returns how many items were created.
func (c *ElasticClient) insertBatch(ctx context.Context, index string, requests []elastic.BulkableRequest) int {
	res, err := c.client.Bulk().Index(index).Add(requests...).Do(ctx)
	if err != nil {
		zlog.Warn("bulk insertion failed",
			zap.String("index", index),
			zap.Int("documents", len(requests)),
			zap.Error(classifyFailure(err, "bulk insertion into "+index)),
		)
		return 0
	}

	created := 0
	for _, item := range res.Items {
		if result, ok := item["index"]; ok && result != nil && result.Result == resultCreated {
			created++
		}
	}

	zlog.Debug("bulk batch sent",
		zap.String("index", index),
		zap.Int("documents", len(requests)),
		zap.Int("created", created),
	)
	return created
}
