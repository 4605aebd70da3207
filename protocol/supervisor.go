package protocol

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// newSupervisor builds the tree the long running services (scheduler,
// metrics server) are restarted under.
func newSupervisor(log zerolog.Logger) *suture.Supervisor {
	return suture.New("rowsync", suture.Spec{
		EventHook: func(event suture.Event) {
			log.Warn().Fields(event.Map()).Msg(event.String())
		},
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
}
