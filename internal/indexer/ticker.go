package indexer

import "time"

// heartbeatTicker is a thin time.Ticker wrapper so build's select loop
// reads cleanly; split out mainly to give Coordinator tests a seam to
// swap in a manually-driven channel.
type heartbeatTicker struct {
	t *time.Ticker
	C <-chan time.Time
}

func newHeartbeatTicker(d time.Duration) *heartbeatTicker {
	t := time.NewTicker(d)
	return &heartbeatTicker{t: t, C: t.C}
}

func (h *heartbeatTicker) Stop() {
	h.t.Stop()
}
