package core

import (
	"context"
	"iter"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Publication reports what PublishIndex did, also when it failed midway.
type Publication struct {
	Index   *Index
	Alias   string
	Created int
	// Retired lists the previous indices that were deleted.
	Retired []string
}

// PublishIndex creates the index described by config, fills it with docs,
// points the dataset alias at it and retires the previous versions.
//
// The steps are not atomic and nothing is rolled back: a failure leaves the
// backend in the state reached so far. Cleanup of previous versions goes on
// past individual failures, which are returned together.
func PublishIndex[D any](
	ctx context.Context,
	c *ElasticClient,
	config *IndexConfiguration,
	docs iter.Seq[D],
	opts ...BulkOption,
) (*Publication, error) {

	if config == nil {
		return nil, newError(KindInvalidConfiguration, "index configuration without name")
	}
	// the name has to follow the naming convention to derive the alias
	if _, _, err := SplitIndexName(config.Name); err != nil {
		return nil, err
	}

	pub := &Publication{}

	if err := c.CreateIndex(ctx, config); err != nil {
		return pub, errors.Wrapf(err, "create index %s", config.Name)
	}

	created, err := InsertDocuments(ctx, c, config.Name, docs, opts...)
	pub.Created = created
	if err != nil {
		return pub, errors.Wrapf(err, "insert documents into %s", config.Name)
	}

	if err := c.RefreshIndex(ctx, config.Name); err != nil {
		return pub, errors.Wrapf(err, "refresh index %s", config.Name)
	}

	index, err := c.FindIndex(ctx, config.Name)
	if err != nil {
		return pub, errors.Wrapf(err, "find index %s", config.Name)
	}
	if index == nil {
		return pub, &Error{Kind: KindUnknownIndex, Name: config.Name, Details: "index not listed after creation"}
	}
	pub.Index = index
	pub.Alias = RootName(index.DocType, index.Dataset)

	if err := c.AddAlias(ctx, []string{index.Name}, pub.Alias); err != nil {
		return pub, errors.Wrapf(err, "add alias %s", pub.Alias)
	}

	aliases, err := c.FindAliases(ctx, pub.Alias)
	if err != nil {
		return pub, errors.Wrapf(err, "find previous indices of %s", pub.Alias)
	}

	var errs *multierror.Error
	for _, name := range previousIndices(aliases, index.Name) {
		if slices.Contains(aliases[name], pub.Alias) {
			if err := c.RemoveAlias(ctx, []string{name}, pub.Alias); err != nil {
				errs = multierror.Append(errs, errors.Wrapf(err, "remove alias from %s", name))
				continue
			}
		}

		if err := c.DeleteIndex(ctx, name); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "delete index %s", name))
			continue
		}
		pub.Retired = append(pub.Retired, name)
	}

	zlog.Info("index published",
		zap.String("index", index.Name),
		zap.String("alias", pub.Alias),
		zap.Int("created", pub.Created),
		zap.Strings("retired", pub.Retired),
	)

	return pub, errs.ErrorOrNil()
}
