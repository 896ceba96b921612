package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	indexNameSeparator = "_"

	// TimestampLayout is the date part of the suffix of concrete index names,
	// followed by "_" and the zero padded nanoseconds.
	TimestampLayout = "20060102_150405"
)

// RootName returns the dataset level name shared by every version of a
// dataset, "{docType}_{dataset}". It is also the name of the dataset alias.
func RootName(docType, dataset string) string {
	return docType + indexNameSeparator + dataset
}

// IndexName returns the concrete, time stamped index name for a dataset.
func IndexName(docType, dataset string, ts time.Time) string {
	ts = ts.UTC()
	return fmt.Sprintf("%s%s%s_%09d",
		RootName(docType, dataset), indexNameSeparator, ts.Format(TimestampLayout), ts.Nanosecond())
}

// DatasetPattern matches every concrete index of a dataset. The trailing
// separator keeps dataset "fr" from matching "fr-ne" indices.
func DatasetPattern(docType, dataset string) string {
	return RootName(docType, dataset) + indexNameSeparator + "*"
}

// SplitIndexName extracts doc type and dataset from a concrete index name.
func SplitIndexName(name string) (docType, dataset string, err error) {
	parts := strings.SplitN(name, indexNameSeparator, 3)
	if len(parts) < 3 {
		return "", "", newErrorf(KindIndexNameConversion,
			"index name '%s' does not follow '{doc_type}_{dataset}_{timestamp}'", name)
	}

	for _, part := range parts {
		if part == "" {
			return "", "", newErrorf(KindIndexNameConversion,
				"index name '%s' has an empty component", name)
		}
	}

	return parts[0], parts[1], nil
}
