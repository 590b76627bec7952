package network

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"trend-screener/src/helpers"
	"trend-screener/src/logger"
	"trend-screener/src/models"
)

type NetworkManager struct {
	Config *models.MConfig
	Agents *helpers.AgentRotator
	Client *http.Client
	Logger *logger.Logger
	// base delay between retry attempts
	RetryBaseDelay time.Duration
}

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MConfig, log *logger.Logger) *NetworkManager {
	return &NetworkManager{
		Config: cfg,
		Agents: helpers.NewAgentRotator(cfg.Network.UserAgent),
		Logger: log,
		Client: &http.Client{
			Timeout: time.Duration(cfg.Network.RequestTimeout) * time.Second,
		},
		RetryBaseDelay: time.Second,
	}
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries and exponential backoff.
// Rate-limit responses (429) back off longer before the next attempt.
func (nm *NetworkManager) Get(urlStr string, params map[string]string) ([]byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	finalUrl := reqUrl.String()
	host := reqUrl.Host

	res, err := helpers.RetryWithBackoff(
		"GET "+host,
		nm.Config.Network.MaxRetries+1,
		nm.RetryBaseDelay,
		func() (interface{}, error) {
			return nm.attempt(finalUrl, host)
		},
	)
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// -----------------------------------------------------------------------------

// attempt runs a single request. Non-OK statuses are returned as
// errors so the retry wrapper drives the next attempt.
func (nm *NetworkManager) attempt(finalUrl, host string) ([]byte, error) {
	req, err := http.NewRequest("GET", finalUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", nm.Agents.GetUserAgent())

	resp, err := nm.Client.Do(req)
	if err != nil {
		nm.Logger.Info("Request to %s failed: %v", host, err)
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		nm.Logger.Warning("Rate limited by %s. Backing off.", host)
		time.Sleep(2 * nm.RetryBaseDelay)
		return nil, fmt.Errorf("rate limited (status %d)", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		nm.Logger.Info("Bad status %d from %s", resp.StatusCode, host)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	return body, nil
}

// -----------------------------------------------------------------------------

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
