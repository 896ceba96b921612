package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

// catIndexRow is one row of the cat indices API in JSON format.
type catIndexRow struct {
	Health       string  `json:"health"`
	Status       string  `json:"status"`
	Name         string  `json:"index"`
	DocsCount    *string `json:"docs.count"`
	DocsDeleted  *string `json:"docs.deleted"`
	Pri          string  `json:"pri"`
	PriStoreSize *string `json:"pri.store.size"`
	Rep          string  `json:"rep"`
	StoreSize    *string `json:"store.size"`
	UUID         string  `json:"uuid"`
}

func (r *catIndexRow) toIndex() (*Index, error) {
	docType, dataset, err := SplitIndexName(r.Name)
	if err != nil {
		return nil, err
	}

	var docsCount uint64
	if r.DocsCount != nil && *r.DocsCount != "" {
		docsCount, err = strconv.ParseUint(*r.DocsCount, 10, 64)
		if err != nil {
			return nil, &Error{
				Kind:    KindResponseDeserialization,
				Details: "invalid docs.count for index '" + r.Name + "'",
				cause:   err,
			}
		}
	}

	return &Index{
		Name:      r.Name,
		DocType:   docType,
		Dataset:   dataset,
		DocsCount: docsCount,
		Status:    indexStatusFromHealth(r.Health),
	}, nil
}

// CreateIndex creates the concrete index described by config.
func (c *ElasticClient) CreateIndex(ctx context.Context, config *IndexConfiguration) error {
	if config == nil || config.Name == "" {
		return newError(KindInvalidConfiguration, "index configuration without name")
	}

	body, err := config.body()
	if err != nil {
		return err
	}

	params := url.Values{}
	if config.Parameters.Timeout != "" {
		params.Set("timeout", config.Parameters.Timeout)
	}
	if config.Parameters.WaitForActiveShards != "" {
		params.Set("wait_for_active_shards", config.Parameters.WaitForActiveShards)
	}

	// {"acknowledged": true, "index": "name", "shards_acknowledged": true}
	if err := c.performAcknowledged(ctx, http.MethodPut, "/"+config.Name, params, body,
		"index creation "+config.Name, KindNotCreated); err != nil {
		return err
	}

	zlog.Info("index created", zap.String("index", config.Name))
	return nil
}

// DeleteIndex deletes a concrete index.
func (c *ElasticClient) DeleteIndex(ctx context.Context, name string) error {
	if err := c.performAcknowledged(ctx, http.MethodDelete, "/"+name, nil, nil,
		"index deletion "+name, KindNotDeleted); err != nil {
		return err
	}

	zlog.Info("index deleted", zap.String("index", name))
	return nil
}

// FindIndex looks up a single index. It returns nil, nil when the backend
// lists no row for name.
func (c *ElasticClient) FindIndex(ctx context.Context, name string) (*Index, error) {
	params := url.Values{}
	params.Set("format", "json")

	res, err := c.perform(ctx, http.MethodGet, "/_cat/indices/"+name, params, nil,
		"cannot find index '"+name+"'")
	if err != nil {
		return nil, err
	}

	var rows []catIndexRow
	if err := json.Unmarshal(res.Body, &rows); err != nil {
		return nil, &Error{
			Kind:        KindInvalidResponseShape,
			Expectation: ExpectArray,
			Details:     "could not deserialize indices listing",
			cause:       err,
		}
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[len(rows)-1].toIndex()
}

// RefreshIndex makes documents written so far visible to searches. Only the
// status is checked, the response body is ignored.
func (c *ElasticClient) RefreshIndex(ctx context.Context, name string) error {
	if _, err := c.client.Refresh(name).Do(ctx); err != nil {
		return classifyFailure(err, "cannot refresh index "+name)
	}

	zlog.Debug("index refreshed", zap.String("index", name))
	return nil
}

// AddPipeline registers the ingest pipeline given as JSON text under name.
func (c *ElasticClient) AddPipeline(ctx context.Context, pipeline, name string) error {
	if !json.Valid([]byte(pipeline)) {
		return newErrorf(KindInvalidConfiguration, "could not deserialize pipeline %s", name)
	}

	if err := c.performAcknowledged(ctx, http.MethodPut, "/_ingest/pipeline/"+name, nil,
		json.RawMessage(pipeline), "pipeline "+name+" creation", KindNotAcknowledged); err != nil {
		return err
	}

	zlog.Info("pipeline added", zap.String("pipeline", name))
	return nil
}
