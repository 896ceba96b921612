package core

import (
	"context"
	"encoding/json"
	"io"
	"iter"

	"github.com/hashicorp/go-multierror"
	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultScrollPageSize  = 100
	defaultScrollKeepAlive = "1m"
)

type scrollOptions struct {
	pageSize   int
	keepAlive  string
	scrollID   string
	query      elastic.Query
	checkpoint func(scrollID string)
}

// ScrollOption tunes RetrieveAllDocuments.
type ScrollOption func(*scrollOptions)

// WithScrollPageSize sets the number of hits fetched per round trip.
func WithScrollPageSize(size int) ScrollOption {
	return func(o *scrollOptions) {
		o.pageSize = size
	}
}

// WithScrollKeepAlive sets how long the backend keeps the cursor between
// round trips, e.g. "1m".
func WithScrollKeepAlive(keepAlive string) ScrollOption {
	return func(o *scrollOptions) {
		o.keepAlive = keepAlive
	}
}

// WithScrollID resumes an existing cursor instead of opening a new one.
func WithScrollID(scrollID string) ScrollOption {
	return func(o *scrollOptions) {
		o.scrollID = scrollID
	}
}

// WithScrollQuery restricts the retrieved documents. Defaults to match_all.
func WithScrollQuery(query elastic.Query) ScrollOption {
	return func(o *scrollOptions) {
		o.query = query
	}
}

// WithCheckpoint is called with the cursor after every page, before its
// documents are yielded.
func WithCheckpoint(fn func(scrollID string)) ScrollOption {
	return func(o *scrollOptions) {
		o.checkpoint = fn
	}
}

// RetrieveAllDocuments lazily yields every document of index using the
// scroll API, which is not bound by the backend's result window.
//
// The cursor is released once the sequence is exhausted or fails. If the
// consumer stops early the cursor stays open until its keep-alive expires,
// so the last checkpointed scroll id can be resumed with WithScrollID.
func RetrieveAllDocuments[D any](
	ctx context.Context,
	c *ElasticClient,
	index string,
	opts ...ScrollOption,
) iter.Seq2[D, error] {

	o := scrollOptions{
		pageSize:  defaultScrollPageSize,
		keepAlive: defaultScrollKeepAlive,
		query:     elastic.NewMatchAllQuery(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(D, error) bool) {
		var zero D

		if o.pageSize < 1 {
			yield(zero, newErrorf(KindInvalidConfiguration, "invalid scroll page size %d", o.pageSize))
			return
		}

		svc := c.ScrollService(index, o.query, nil).
			Size(o.pageSize).
			KeepAlive(o.keepAlive)

		scrollID := o.scrollID
		var nCurrentItem int64

		for {
			if scrollID != "" {
				svc = svc.ScrollId(scrollID)
			}

			res, err := svc.Do(ctx)
			if res != nil && res.ScrollId != "" {
				scrollID = res.ScrollId
			}
			if errors.Is(err, io.EOF) {
				if err := c.releaseScroll(ctx, scrollID, nil); err != nil {
					yield(zero, err)
				}
				zlog.Debug("scroll exhausted",
					zap.String("index", index),
					zap.Int64("documents", nCurrentItem),
				)
				return
			}
			if err != nil {
				yield(zero, c.releaseScroll(ctx, scrollID,
					classifyFailure(err, "cannot scroll index "+index)))
				return
			}

			if o.checkpoint != nil {
				o.checkpoint(scrollID)
			}

			if res.Hits == nil {
				continue
			}

			for _, hit := range res.Hits.Hits {
				nCurrentItem++

				var doc D
				if err := json.Unmarshal(hit.Source, &doc); err != nil {
					yield(zero, c.releaseScroll(ctx, scrollID, &Error{
						Kind:    KindResponseDeserialization,
						Details: "could not decode document " + hit.Id,
						cause:   err,
					}))
					return
				}

				if !yield(doc, nil) {
					return
				}
			}
		}
	}
}

func (c *ElasticClient) ScrollService(
	index string,
	query elastic.Query,
	sorter elastic.Sorter,
) *elastic.ScrollService {

	svc := elastic.NewScrollService(c.client)
	svc = svc.Index(index).Query(query)
	if sorter != nil {
		svc.SortBy(sorter)
	}

	return svc
}

func (c *ElasticClient) ClearScroll(ctx context.Context, scrollID string) error {
	if scrollID == "" {
		return nil
	}

	if _, err := c.client.ClearScroll(scrollID).Do(ctx); err != nil {
		return err
	}

	return nil
}

// releaseScroll clears the cursor and merges a failure to do so into cause.
func (c *ElasticClient) releaseScroll(ctx context.Context, scrollID string, cause error) error {
	var errs *multierror.Error
	if cause != nil {
		errs = multierror.Append(errs, cause)
	}

	if err := c.ClearScroll(ctx, scrollID); err != nil {
		errs = multierror.Append(errs,
			classifyFailure(errors.Wrap(err, "ClearScroll"), "cannot clear scroll"))
	}

	return errs.ErrorOrNil()
}
