package core

import (
	"regexp"

	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
)

// exceptionRule maps one backend reason pattern to an error. Rules are tried
// in order and the first match wins.
type exceptionRule struct {
	pattern *regexp.Regexp
	build   func(match []string) *Error
}

var exceptionRules = []exceptionRule{
	{
		pattern: regexp.MustCompile(`index \[([^\]/]+).*\] already exists`),
		build: func(m []string) *Error {
			return &Error{Kind: KindDuplicateIndex, Name: m[1]}
		},
	},
	{
		pattern: regexp.MustCompile(`no such index \[([^\]/]+).*\]`),
		build: func(m []string) *Error {
			return &Error{Kind: KindUnknownIndex, Name: m[1]}
		},
	},
	{
		pattern: regexp.MustCompile(`failed to parse`),
		build: func([]string) *Error {
			return &Error{Kind: KindFailedToParse}
		},
	},
	{
		pattern: regexp.MustCompile(`unknown setting \[([^\]/]+).*\]`),
		build: func(m []string) *Error {
			return &Error{Kind: KindUnknownSetting, Name: m[1]}
		},
	},
}

// ClassifyException turns a backend failure payload into a typed error by
// matching the first root cause's reason against known patterns. Reasons
// that match nothing end up as KindUnhandledException.
func ClassifyException(details *elastic.ErrorDetails) *Error {
	if details == nil || len(details.RootCause) == 0 {
		return newError(KindUnhandledException, "Unspecified root cause")
	}

	cause := details.RootCause[0]
	if cause == nil || cause.Reason == "" {
		return newError(KindUnhandledException, "Unspecified reason")
	}

	for _, rule := range exceptionRules {
		if m := rule.pattern.FindStringSubmatch(cause.Reason); m != nil {
			return rule.build(m)
		}
	}

	return newError(KindUnhandledException, "Unidentified reason: "+cause.Reason)
}

// classifyFailure converts an error returned by the olivere client. details
// describes the call and is attached to transport failures only.
func classifyFailure(err error, details string) error {
	if err == nil {
		return nil
	}

	var esErr *elastic.Error
	if errors.As(err, &esErr) {
		if esErr.Details == nil {
			return newErrorf(KindFailureWithoutException,
				"fail status %d without exception", esErr.Status)
		}
		return ClassifyException(esErr.Details)
	}

	return &Error{
		Kind:    KindBackendCallFailed,
		Details: details,
		cause:   errors.WithStack(err),
	}
}
