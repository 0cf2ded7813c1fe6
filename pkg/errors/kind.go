package errors

import (
	"github.com/cockroachdb/errors"
)

// Kind classifies an error for callers that must react to the failure
// category without inspecting messages.
type Kind string

const (
	KindConfiguration       Kind = "ConfigurationError"
	KindNotFound            Kind = "NotFoundError"
	KindValidation          Kind = "ValidationError"
	KindInsufficientQuality Kind = "InsufficientQualityError"
	KindIO                  Kind = "IOFailure"
	KindInternal            Kind = "InternalError"
)

// KindOf walks the cause chain of err and returns the kind of the first
// (outermost) taxonomy error it meets. Errors outside the taxonomy,
// including recovered panics, are KindInternal. KindOf(nil) is "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		switch e.(type) {
		case *ConfigurationError:
			return KindConfiguration
		case *NotFoundError:
			return KindNotFound
		case *ValidationError:
			return KindValidation
		case *InsufficientQualityError:
			return KindInsufficientQuality
		case *IOFailure:
			return KindIO
		}
	}
	return KindInternal
}
