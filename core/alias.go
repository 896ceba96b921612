package core

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"go.uber.org/zap"
)

// AddAlias points alias at every index in indices.
func (c *ElasticClient) AddAlias(ctx context.Context, indices []string, alias string) error {
	if len(indices) == 0 {
		return newError(KindInvalidConfiguration, "alias "+alias+" without indices")
	}

	if err := c.performAcknowledged(ctx, http.MethodPut,
		"/"+joinIndices(indices)+"/_alias/"+alias, nil, nil,
		"alias "+alias+" creation", KindNotAcknowledged); err != nil {
		return err
	}

	zlog.Info("alias added",
		zap.String("alias", alias),
		zap.Strings("indices", indices),
	)
	return nil
}

// RemoveAlias removes alias from every index in indices.
func (c *ElasticClient) RemoveAlias(ctx context.Context, indices []string, alias string) error {
	if len(indices) == 0 {
		return newError(KindInvalidConfiguration, "alias "+alias+" without indices")
	}

	if err := c.performAcknowledged(ctx, http.MethodDelete,
		"/"+joinIndices(indices)+"/_alias/"+alias, nil, nil,
		"alias "+alias+" deletion", KindNotAcknowledged); err != nil {
		return err
	}

	zlog.Info("alias removed",
		zap.String("alias", alias),
		zap.Strings("indices", indices),
	)
	return nil
}

// FindAliases returns, for every concrete index of the dataset rooted at
// prefix, the aliases pointing at it. Indices without alias map to an empty
// slice.
func (c *ElasticClient) FindAliases(ctx context.Context, prefix string) (map[string][]string, error) {
	// without the trailing '_*', looking up 'fr' would also return 'fr-ne'
	pattern := prefix + indexNameSeparator + "*"

	res, err := c.perform(ctx, http.MethodGet, "/"+pattern+"/_alias", nil, nil,
		"cannot find aliases to "+pattern)
	if err != nil {
		return nil, err
	}

	// {"index1": {"aliases": {"alias1": {}, "alias2": {}}}, "index2": {"aliases": {}}}
	obj, err := decodeObject(res.Body)
	if err != nil {
		return nil, err
	}

	aliases := make(map[string][]string, len(obj))
	for name, raw := range obj {
		var entry struct {
			Aliases map[string]json.RawMessage `json:"aliases"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, &Error{
				Kind:        KindInvalidResponseShape,
				Expectation: ExpectObject,
				Details:     "aliases of index '" + name + "'",
				cause:       err,
			}
		}

		names := make([]string, 0, len(entry.Aliases))
		for alias := range entry.Aliases {
			names = append(names, alias)
		}
		sort.Strings(names)
		aliases[name] = names
	}

	zlog.Debug("aliases found",
		zap.String("pattern", pattern),
		zap.Int("indices", len(aliases)),
	)
	return aliases, nil
}

// GetPreviousIndices lists the other versions of index's dataset, the ones
// eligible for retirement once index is published.
func (c *ElasticClient) GetPreviousIndices(ctx context.Context, index *Index) ([]string, error) {
	aliases, err := c.FindAliases(ctx, RootName(index.DocType, index.Dataset))
	if err != nil {
		return nil, err
	}

	return previousIndices(aliases, index.Name), nil
}

func previousIndices(aliases map[string][]string, current string) []string {
	previous := make([]string, 0, len(aliases))
	for name := range aliases {
		if name != current {
			previous = append(previous, name)
		}
	}
	sort.Strings(previous)

	return previous
}
