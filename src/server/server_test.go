package server

import (
	"testing"
	"time"

	"trend-screener/src/logger"
	"trend-screener/src/models"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestStopDropsLateNotices(t *testing.T) {
	cfg := &models.MConfig{Name: "test", LogLevel: "ERROR", Host: "127.0.0.1"}
	s := NewResultsServer(cfg, nil, logger.NewLogger(cfg.LogLevel, cfg.Name))

	go s.handleWebsockets()

	s.NotifyRunComplete(&models.MRunNotice{Type: "RUN_COMPLETE", Date: "2025-06-10"})

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	// After shutdown a notice is dropped, never a panic or a hang.
	delivered := make(chan struct{})
	go func() {
		s.NotifyRunComplete(&models.MRunNotice{Type: "RUN_COMPLETE", Date: "2025-06-11"})
		close(delivered)
	}()
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("NotifyRunComplete blocked after Stop")
	}
}
