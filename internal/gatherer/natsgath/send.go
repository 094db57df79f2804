package natsgath

import (
	"encoding/json"
)

// send publishes best-effort: a broken NATS connection must never be able to
// fail the run itself.
func (s *natsGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("failed to marshal progress message", "error", err)
		return
	}

	if err := s.nc.Publish(s.subject, b); err != nil {
		s.logger.Warn("failed to publish progress message", "subject", s.subject, "error", err)
	}
}
