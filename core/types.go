package core

import (
	"encoding/json"

	"github.com/olivere/elastic/v7"
)

type (

	// ElasticClient issues index lifecycle, alias and ingestion calls. It holds
	// no state besides the connection and is safe for concurrent use.
	ElasticClient struct {
		client   *elastic.Client
		endpoint string
		userName string
		password string
	}

	// SearchParameters holds all required and optional parameters for executing a search
	SearchParameters struct {
		Index       string
		Query       elastic.Query
		From        int
		PageSize    int
		Sorter      []elastic.Sorter
		SearchAfter []interface{}
	}

	// Index is a concrete index as listed by the backend.
	Index struct {
		Name      string
		DocType   string
		Dataset   string
		DocsCount uint64
		Status    IndexStatus
	}

	// IndexConfiguration is everything the create index API takes: the path
	// parameter, query parameters and the settings/mappings body.
	IndexConfiguration struct {
		Name       string          `json:"name"`
		Parameters IndexParameters `json:"parameters"`
		Settings   json.RawMessage `json:"settings,omitempty"`
		Mappings   json.RawMessage `json:"mappings,omitempty"`
	}

	// IndexParameters are passed as query parameters on index creation.
	IndexParameters struct {
		Timeout             string `json:"timeout"`
		WaitForActiveShards string `json:"wait_for_active_shards"`
	}
)

// IndexStatus is the availability of an index derived from its health.
type IndexStatus int

const (
	IndexStatusAvailable IndexStatus = iota
	IndexStatusUnavailable
)

func (s IndexStatus) String() string {
	switch s {
	case IndexStatusUnavailable:
		return "unavailable"
	default:
		return "available"
	}
}

// indexStatusFromHealth maps red to unavailable. Green, yellow and values
// the backend may add later are considered available.
func indexStatusFromHealth(health string) IndexStatus {
	switch health {
	case "red":
		return IndexStatusUnavailable
	default:
		return IndexStatusAvailable
	}
}

// IDProvider is implemented by documents carrying their own document id.
type IDProvider interface {
	ID() string
}
