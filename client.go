package esindex

import (
	"context"
	"sync"

	"github.com/denkhaus/esindex/core"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	clientMu       sync.Mutex
	clientInstance *core.ElasticClient
)

// Get returns the shared client, connecting and pinging the backend on the
// first call.
func Get(ctx context.Context, cfg Config) (*core.ElasticClient, error) {
	clientMu.Lock()
	defer clientMu.Unlock()

	if clientInstance == nil {
		cfg.SetDefaults()

		client, err := core.NewClient(
			cfg.URL,
			cfg.Username,
			cfg.Password,
			cfg.HealthcheckInterval,
			cfg.Sniff,
		)

		if err != nil {
			return nil, errors.Wrap(err, "NewClient")
		}

		info, code, err := client.Ping().Do(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "Ping")
		}

		zlog.Debug("elasticsearch client created",
			zap.Int("code", code),
			zap.String("version", info.Version.Number),
		)

		clientInstance = client
	}

	return clientInstance, nil
}
