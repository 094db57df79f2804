// Package natsgath streams run progress to a NATS subject so remote consumers
// can follow the harness's lifecycle without scraping its terminal output.
package natsgath

import (
	"log/slog"

	"github.com/nats-io/nats.go"
)

// New creates a NATS gatherer that streams run progress to the given subject.
func New(nc *nats.Conn, runUuid string, subject string, logger *slog.Logger) *natsGatherer {
	return &natsGatherer{
		nc:      nc,
		subject: subject,
		runUuid: runUuid,
		logger:  logger,
	}
}
