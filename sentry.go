package pitwall

import (
	"github.com/getsentry/raven-go"
)

// ErrorReporter forwards failures to an external error tracker.
type ErrorReporter func(err error, tags map[string]string)

func NewSentryReporter(dsn string) (ErrorReporter, error) {
	client, err := raven.New(dsn)

	if err != nil {
		return nil, err
	}

	return func(err error, tags map[string]string) {
		client.CaptureError(err, tags)
	}, nil
}
