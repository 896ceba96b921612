package core

import (
	"context"
	"encoding/json"
	"iter"

	"github.com/olivere/elastic/v7"
)

// Search passes an already built query to the backend.
func (c *ElasticClient) Search(ctx context.Context, p *SearchParameters) (
	*elastic.SearchResult, error) {

	searchService := c.client.Search(p.Index).
		Query(p.Query).
		From(p.From).
		SortBy(p.Sorter...)

	if p.PageSize != 0 {
		searchService.Size(p.PageSize)
	}

	if len(p.SearchAfter) != 0 {
		searchService.SearchAfter(p.SearchAfter...)
	}

	res, err := searchService.Do(ctx)
	if err != nil {
		return nil, classifyFailure(err, "cannot search index "+p.Index)
	}

	return res, nil
}

// DocumentSearcher decodes search hits and scroll pages into D.
type DocumentSearcher[D any] struct {
	client *ElasticClient
}

func NewDocumentSearcher[D any](client *ElasticClient) *DocumentSearcher[D] {
	return &DocumentSearcher[D]{client: client}
}

func (s *DocumentSearcher[D]) SearchDocuments(ctx context.Context, p *SearchParameters) ([]D, error) {
	params := *p
	if params.Query == nil {
		params.Query = elastic.NewMatchAllQuery()
	}

	res, err := s.client.Search(ctx, &params)
	if err != nil {
		return nil, err
	}

	if res.Hits == nil {
		return []D{}, nil
	}

	docs := make([]D, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc D
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, &Error{
				Kind:    KindResponseDeserialization,
				Details: "could not decode document " + hit.Id,
				cause:   err,
			}
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (s *DocumentSearcher[D]) ExportDocuments(ctx context.Context, index string) iter.Seq2[D, error] {
	return RetrieveAllDocuments[D](ctx, s.client, index)
}
