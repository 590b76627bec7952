package helpers

import (
	"math/rand"
	"sync"
)

// -----------------------------------------------------------------------------

// AgentRotator hands out a rotating set of User-Agent strings for
// outbound provider requests.
type AgentRotator struct {
	userAgents []string
	defaultUA  string
	mu         sync.Mutex
}

// -----------------------------------------------------------------------------

func NewAgentRotator(defaultUA string) *AgentRotator {
	return &AgentRotator{
		defaultUA: defaultUA,
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36",
			"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:88.0) Gecko/20100101 Firefox/88.0",
		},
	}
}

// -----------------------------------------------------------------------------

// GetUserAgent returns the configured agent when set, otherwise a
// random one from the pool.
func (ar *AgentRotator) GetUserAgent() string {
	if ar.defaultUA != "" {
		return ar.defaultUA
	}

	ar.mu.Lock()
	defer ar.mu.Unlock()
	return ar.userAgents[rand.Intn(len(ar.userAgents))]
}
