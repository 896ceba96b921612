// Package usecase holds the capabilities the orchestration layer depends on.
// They are satisfied by core.DocumentSearcher without the adapter knowing
// about caller side types.
package usecase

import (
	"context"
	"iter"

	"github.com/denkhaus/esindex/core"
)

// Searcher can search documents of type D.
type Searcher[D any] interface {
	SearchDocuments(ctx context.Context, p *core.SearchParameters) ([]D, error)
}

// Exporter lazily yields every document of type D stored in an index.
type Exporter[D any] interface {
	ExportDocuments(ctx context.Context, index string) iter.Seq2[D, error]
}

// Error is returned when a use case could not complete.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SearchDocuments runs a search through any Searcher.
type SearchDocuments[D any] struct {
	searcher Searcher[D]
}

func NewSearchDocuments[D any](searcher Searcher[D]) *SearchDocuments[D] {
	return &SearchDocuments[D]{searcher: searcher}
}

func (u *SearchDocuments[D]) Execute(ctx context.Context, p *core.SearchParameters) ([]D, error) {
	docs, err := u.searcher.SearchDocuments(ctx, p)
	if err != nil {
		return nil, &Error{Op: "document retrieval", Err: err}
	}

	return docs, nil
}

// ExportDocuments yields every document of an index through any Exporter.
type ExportDocuments[D any] struct {
	exporter Exporter[D]
}

func NewExportDocuments[D any](exporter Exporter[D]) *ExportDocuments[D] {
	return &ExportDocuments[D]{exporter: exporter}
}

func (u *ExportDocuments[D]) Execute(ctx context.Context, index string) iter.Seq2[D, error] {
	return func(yield func(D, error) bool) {
		for doc, err := range u.exporter.ExportDocuments(ctx, index) {
			if err != nil {
				var zero D
				yield(zero, &Error{Op: "document export", Err: err})
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

var (
	_ Searcher[struct{}] = (*core.DocumentSearcher[struct{}])(nil)
	_ Exporter[struct{}] = (*core.DocumentSearcher[struct{}])(nil)
)
