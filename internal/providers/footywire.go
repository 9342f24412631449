package providers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

// FootyWireClient fetches SuperCoach prices and season stats from the
// FootyWire JSON API. Requests go through a circuit breaker so a flapping
// upstream fails fast instead of hammering retries, and responses are cached.
type FootyWireClient struct {
	baseURL    string
	httpClient *http.Client
	cache      supercoach.CacheProvider
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewFootyWireClient creates a FootyWire API client. breakerThreshold is the
// minimum request count before the breaker may trip.
func NewFootyWireClient(baseURL string, timeout time.Duration, breakerThreshold int, cache supercoach.CacheProvider, logger *logrus.Logger) *FootyWireClient {
	if baseURL == "" {
		baseURL = "https://www.footywire.com/afl/footy/api"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if breakerThreshold <= 0 {
		breakerThreshold = 3
	}

	settings := gobreaker.Settings{
		Name: "footywire",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= uint32(breakerThreshold) && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &FootyWireClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

func (c *FootyWireClient) Name() string {
	return "footywire"
}

// FootyWire API response structures
type footywireResponse struct {
	Season  int `json:"season"`
	Players []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Club     string `json:"club"`
		Position string `json:"position"`
		Price    int64  `json:"price"`
		Age      int    `json:"age"`
		Games    int    `json:"games"`
		Averages struct {
			Disposals float64 `json:"disposals"`
			Kicks     float64 `json:"kicks"`
			Handballs float64 `json:"handballs"`
			Marks     float64 `json:"marks"`
			Tackles   float64 `json:"tackles"`
			Goals     float64 `json:"goals"`
			Behinds   float64 `json:"behinds"`
			Hitouts   float64 `json:"hitouts"`
			Score     float64 `json:"supercoach"`
		} `json:"averages"`
		InjuryHistory int     `json:"injury_history"`
		GamesLast3    int     `json:"games_last_3"`
		FormLast5     float64 `json:"form_last_5"`
	} `json:"players"`
}

// GetPlayers fetches the full candidate pool for a season.
func (c *FootyWireClient) GetPlayers(season int) ([]supercoach.PlayerRecord, error) {
	cacheKey := fmt.Sprintf("footywire:players:%d", season)

	if c.cache != nil {
		var cached []supercoach.PlayerRecord
		if err := c.cache.GetSimple(cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	url := fmt.Sprintf("%s/supercoach/prices?season=%d", c.baseURL, season)
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var resp footywireResponse
		if err := c.makeRequest(url, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("footywire fetch failed: %w", err)
	}

	resp := result.(*footywireResponse)
	now := time.Now().UTC()
	records := make([]supercoach.PlayerRecord, 0, len(resp.Players))
	for _, p := range resp.Players {
		records = append(records, supercoach.PlayerRecord{
			ExternalID:    p.ID,
			Name:          p.Name,
			Club:          p.Club,
			Position:      p.Position,
			Price:         p.Price,
			Age:           p.Age,
			GamesPlayed:   p.Games,
			AvgDisposals:  p.Averages.Disposals,
			AvgKicks:      p.Averages.Kicks,
			AvgHandballs:  p.Averages.Handballs,
			AvgMarks:      p.Averages.Marks,
			AvgTackles:    p.Averages.Tackles,
			AvgGoals:      p.Averages.Goals,
			AvgBehinds:    p.Averages.Behinds,
			AvgHitouts:    p.Averages.Hitouts,
			AvgScore:      p.Averages.Score,
			InjuryHistory: p.InjuryHistory,
			GamesLast3:    p.GamesLast3,
			FormLast5:     p.FormLast5,
			Source:        c.Name(),
			LastUpdated:   now,
		})
	}

	// Cache for 2 hours; prices change at most once a round.
	if c.cache != nil && len(records) > 0 {
		c.cache.SetSimple(cacheKey, records, 2*time.Hour)
	}

	return records, nil
}

// makeRequest performs an HTTP GET with exponential backoff.
func (c *FootyWireClient) makeRequest(url string, target interface{}) error {
	var resp *http.Response
	var err error

	for attempt := 0; attempt < 3; attempt++ {
		resp, err = c.httpClient.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if resp != nil {
			resp.Body.Close()
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		c.logger.Warnf("Request failed (attempt %d), waiting %v: %v", attempt+1, waitTime, err)
		time.Sleep(waitTime)
	}

	if err != nil {
		return fmt.Errorf("request failed after retries: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(target)
}
