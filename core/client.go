package core

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NewClient connects to the backend. The client is built without a retrier:
// every call is attempted once and failures surface to the caller.
func NewClient(endpoint, userName, password string, healthCheckInterval time.Duration, sniff bool) (*ElasticClient, error) {
	options := []elastic.ClientOptionFunc{
		elastic.SetSniff(sniff),
		elastic.SetURL(endpoint),
		elastic.SetHealthcheck(healthCheckInterval > 0),
		// critical to ensure decode of int64 won't lose precision
		elastic.SetDecoder(&elastic.NumberDecoder{}),
	}
	if healthCheckInterval > 0 {
		options = append(options, elastic.SetHealthcheckInterval(healthCheckInterval))
	}
	if userName != "" || password != "" {
		options = append(options, elastic.SetBasicAuth(userName, password))
	}

	client, err := elastic.NewClient(options...)
	if err != nil {
		return nil, errors.Wrap(err, "NewClient")
	}

	return &ElasticClient{
		endpoint: endpoint,
		userName: userName,
		password: password,
		client:   client,
	}, nil
}

// WrapClient uses an already configured olivere client.
func WrapClient(client *elastic.Client) *ElasticClient {
	return &ElasticClient{client: client}
}

// Elastic returns the underlying olivere client.
func (c *ElasticClient) Elastic() *elastic.Client {
	return c.client
}

func (c *ElasticClient) Ping() *elastic.PingService {
	return c.client.Ping(c.endpoint)
}

// perform sends a raw request and classifies any non-success status.
func (c *ElasticClient) perform(
	ctx context.Context,
	method, path string,
	params url.Values,
	body interface{},
	details string,
) (*elastic.Response, error) {

	zlog.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
	)

	res, err := c.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: method,
		Path:   path,
		Params: params,
		Body:   body,
	})
	if err != nil {
		return nil, classifyFailure(err, details)
	}

	return res, nil
}

// performAcknowledged sends a request whose success body follows the
// acknowledged contract. A false acknowledgment is reported as notAck.
func (c *ElasticClient) performAcknowledged(
	ctx context.Context,
	method, path string,
	params url.Values,
	body interface{},
	details string,
	notAck Kind,
) error {

	res, err := c.perform(ctx, method, path, params, body, details)
	if err != nil {
		return err
	}

	acknowledged, err := ValidateAcknowledged(res.Body)
	if err != nil {
		return err
	}

	if !acknowledged {
		return newError(notAck, details)
	}

	return nil
}

func joinIndices(indices []string) string {
	return strings.Join(indices, ",")
}
