package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/openmohaa/tactical-api/internal/models"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "tactical_provider_request_duration_seconds",
	Help:    "Duration of outbound provider requests",
	Buckets: prometheus.DefBuckets,
}, []string{"provider", "status"})

const (
	DefaultSofaScoreURL = "https://api.sofascore.com/api/v1"
	defaultUserAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxResponseBytes    = 4 << 20
)

// SofaScoreConfig configures the SofaScore client
type SofaScoreConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	RetryBackoff      time.Duration
	Concurrency       int
	MaxPages          int
	UserAgent         string
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// SofaScoreClient reads finished events and their statistics from the
// SofaScore JSON API. Requests are rate limited, retried with exponential
// backoff on 429/5xx, and guarded by a circuit breaker.
type SofaScoreClient struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	maxRetries  int
	backoff     time.Duration
	concurrency int
	maxPages    int
	logger      *zap.SugaredLogger
}

// NewSofaScoreClient creates a new SofaScore client
func NewSofaScoreClient(cfg SofaScoreConfig) *SofaScoreClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSofaScoreURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	logger := cfg.Logger.Sugar()

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sofascore",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnw("Provider circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
		},
	})

	return &SofaScoreClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		httpClient:  cfg.HTTPClient,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breaker:     cb,
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.RetryBackoff,
		concurrency: cfg.Concurrency,
		maxPages:    cfg.MaxPages,
		logger:      logger,
	}
}

func (c *SofaScoreClient) Name() string { return models.ProviderSofaScore }

// SofaScore API response structures
type sofaTeam struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type sofaScore struct {
	Current *int `json:"current"`
}

type sofaEvent struct {
	ID             int64 `json:"id"`
	StartTimestamp int64 `json:"startTimestamp"`
	Status         struct {
		Type string `json:"type"`
	} `json:"status"`
	Tournament struct {
		Name string `json:"name"`
	} `json:"tournament"`
	HomeTeam  sofaTeam  `json:"homeTeam"`
	AwayTeam  sofaTeam  `json:"awayTeam"`
	HomeScore sofaScore `json:"homeScore"`
	AwayScore sofaScore `json:"awayScore"`
}

type sofaEventsResponse struct {
	Events      []sofaEvent `json:"events"`
	HasNextPage bool        `json:"hasNextPage"`
}

type sofaStatItem struct {
	Name      string          `json:"name"`
	Home      json.RawMessage `json:"home"`
	Away      json.RawMessage `json:"away"`
	HomeValue json.RawMessage `json:"homeValue"`
	AwayValue json.RawMessage `json:"awayValue"`
}

type sofaStatGroup struct {
	GroupName       string         `json:"groupName"`
	StatisticsItems []sofaStatItem `json:"statisticsItems"`
}

type sofaStatPeriod struct {
	Period string          `json:"period"`
	Groups []sofaStatGroup `json:"groups"`
}

type sofaStatisticsResponse struct {
	Statistics []sofaStatPeriod `json:"statistics"`
}

type sofaIncident struct {
	IncidentType string `json:"incidentType"`
	Time         int    `json:"time"`
	AddedTime    int    `json:"addedTime"`
	IsHome       bool   `json:"isHome"`
}

type sofaIncidentsResponse struct {
	Incidents []sofaIncident `json:"incidents"`
}

type sofaSearchResponse struct {
	Results []struct {
		Type   string `json:"type"`
		Entity struct {
			ID        int64  `json:"id"`
			Name      string `json:"name"`
			ShortName string `json:"shortName"`
			Sport     struct {
				Name string `json:"name"`
			} `json:"sport"`
		} `json:"entity"`
	} `json:"results"`
}

// RecentMatches returns up to limit finished matches, most recent first.
// Statistics are fetched concurrently. Events whose statistics are missing or
// fail to load are dropped; only cancellation aborts the batch.
func (c *SofaScoreClient) RecentMatches(ctx context.Context, team models.TeamIdentity, limit int) ([]models.RawMatch, error) {
	if team.ID == "" {
		return nil, fmt.Errorf("sofascore needs a team id")
	}
	events, err := c.lastFinishedEvents(ctx, team.ID, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*models.RawMatch, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, ev := range events {
		g.Go(func() error {
			var stats sofaStatisticsResponse
			err := c.getJSON(gctx, fmt.Sprintf("/event/%d/statistics", ev.ID), &stats)
			if errors.Is(err, ErrNotFound) {
				c.logger.Infow("Event has no statistics", "matchID", ev.ID)
				return nil
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warnw("Skipping event, statistics unavailable", "matchID", ev.ID, "error", err)
				return nil
			}

			var incidents sofaIncidentsResponse
			var raw []models.RawIncident
			if err := c.getJSON(gctx, fmt.Sprintf("/event/%d/incidents", ev.ID), &incidents); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Debugw("Incidents unavailable", "matchID", ev.ID, "error", err)
			} else {
				raw = toIncidents(incidents.Incidents)
			}

			m := toRawMatch(ev, stats, raw)
			results[i] = &m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := make([]models.RawMatch, 0, len(results))
	for _, m := range results {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	return matches, nil
}

// SearchTeams looks up football teams by name, best match first.
func (c *SofaScoreClient) SearchTeams(ctx context.Context, query string, limit int) ([]models.TeamIdentity, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.TeamIdentity{}, nil
	}
	var resp sofaSearchResponse
	if err := c.getJSON(ctx, "/search/all?q="+url.QueryEscape(query), &resp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []models.TeamIdentity{}, nil
		}
		return nil, err
	}

	teams := []models.TeamIdentity{}
	for _, r := range resp.Results {
		if !strings.EqualFold(r.Type, "team") || r.Entity.ID == 0 || r.Entity.Name == "" {
			continue
		}
		if r.Entity.Sport.Name != "" && !strings.EqualFold(r.Entity.Sport.Name, "football") {
			continue
		}
		teams = append(teams, models.TeamIdentity{ID: strconv.FormatInt(r.Entity.ID, 10), Name: r.Entity.Name})
	}
	sort.SliceStable(teams, func(i, j int) bool {
		return nameScore(teams[i].Name, query) > nameScore(teams[j].Name, query)
	})
	if limit > 0 && len(teams) > limit {
		teams = teams[:limit]
	}
	return teams, nil
}

func nameScore(name, query string) int {
	n, q := strings.ToLower(name), strings.ToLower(query)
	switch {
	case n == q:
		return 3
	case strings.HasPrefix(n, q):
		return 2
	case strings.Contains(n, q):
		return 1
	}
	return 0
}

func (c *SofaScoreClient) lastFinishedEvents(ctx context.Context, teamID string, limit int) ([]sofaEvent, error) {
	var out []sofaEvent
	for page := 0; page < c.maxPages; page++ {
		var resp sofaEventsResponse
		err := c.getJSON(ctx, fmt.Sprintf("/team/%s/events/last/%d", url.PathEscape(teamID), page), &resp)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, finished(resp.Events)...)
		if !resp.HasNextPage || len(resp.Events) == 0 {
			break
		}
	}
	// Pages run oldest to newest within a page and newest pages first.
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTimestamp > out[j].StartTimestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpcomingFixtures returns up to limit scheduled fixtures, soonest first.
// Postponed, cancelled and live events are kept so a schedule change stays visible.
func (c *SofaScoreClient) UpcomingFixtures(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error) {
	if team.ID == "" {
		return nil, fmt.Errorf("sofascore needs a team id")
	}
	var out []models.Fixture
	for page := 0; page < c.maxPages; page++ {
		var resp sofaEventsResponse
		err := c.getJSON(ctx, fmt.Sprintf("/team/%s/events/next/%d", url.PathEscape(team.ID), page), &resp)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, ev := range resp.Events {
			if upcomingStatuses[strings.ToLower(ev.Status.Type)] {
				out = append(out, toFixture(ev, team.ID))
			}
		}
		if !resp.HasNextPage || len(resp.Events) == 0 {
			break
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []models.Fixture{}
	}
	return out, nil
}

// RecentFixtures returns up to limit finished fixtures, most recent first,
// without the per-event statistics RecentMatches loads.
func (c *SofaScoreClient) RecentFixtures(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error) {
	if team.ID == "" {
		return nil, fmt.Errorf("sofascore needs a team id")
	}
	events, err := c.lastFinishedEvents(ctx, team.ID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Fixture, 0, len(events))
	for _, ev := range events {
		out = append(out, toFixture(ev, team.ID))
	}
	return out, nil
}

var upcomingStatuses = map[string]bool{
	"notstarted": true,
	"postponed":  true,
	"cancelled":  true,
	"inprogress": true,
}

func toFixture(ev sofaEvent, teamID string) models.Fixture {
	home := strconv.FormatInt(ev.HomeTeam.ID, 10) == teamID
	opponent := ev.HomeTeam
	if home {
		opponent = ev.AwayTeam
	}
	f := models.Fixture{
		MatchID:        strconv.FormatInt(ev.ID, 10),
		Competition:    ev.Tournament.Name,
		Status:         models.FixtureUpcoming,
		ProviderStatus: strings.ToLower(ev.Status.Type),
		IsHome:         home,
		OpponentID:     strconv.FormatInt(opponent.ID, 10),
		OpponentName:   opponent.Name,
	}
	if ev.StartTimestamp > 0 {
		f.Date = time.Unix(ev.StartTimestamp, 0).UTC()
	}
	if strings.EqualFold(ev.Status.Type, "finished") {
		f.Status = models.FixtureFinished
		f.HomeScore = ev.HomeScore.Current
		f.AwayScore = ev.AwayScore.Current
		if f.HomeScore != nil && f.AwayScore != nil {
			f.Score = fmt.Sprintf("%d-%d", *f.HomeScore, *f.AwayScore)
			scored, conceded := *f.HomeScore, *f.AwayScore
			if !home {
				scored, conceded = conceded, scored
			}
			f.Result = models.ResultFor(scored, conceded)
		}
	}
	return f
}

func finished(events []sofaEvent) []sofaEvent {
	out := make([]sofaEvent, 0, len(events))
	for _, ev := range events {
		if strings.EqualFold(ev.Status.Type, "finished") {
			out = append(out, ev)
		}
	}
	return out
}

// getJSON performs a rate-limited GET through the circuit breaker.
func (c *SofaScoreClient) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.breaker.Execute(func() (any, error) {
		return c.getWithRetry(ctx, path)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("sofascore unavailable: %w", err)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *SofaScoreClient) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<(attempt-1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retry, err := c.do(ctx, path)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
		c.logger.Debugw("Retrying provider request", "path", path, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *SofaScoreClient) do(ctx context.Context, path string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json,text/plain,*/*")
	req.Header.Set("Referer", "https://www.sofascore.com/")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestDuration.WithLabelValues(models.ProviderSofaScore, "error").Observe(time.Since(start).Seconds())
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	requestDuration.WithLabelValues(models.ProviderSofaScore, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrBlocked
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("sofascore returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("sofascore returned %d", resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}

func toRawMatch(ev sofaEvent, stats sofaStatisticsResponse, incidents []models.RawIncident) models.RawMatch {
	m := models.RawMatch{
		Provider:    models.ProviderSofaScore,
		MatchID:     strconv.FormatInt(ev.ID, 10),
		Competition: ev.Tournament.Name,
		HomeTeam:    toTeamRef(ev.HomeTeam),
		AwayTeam:    toTeamRef(ev.AwayTeam),
		HomeScore:   ev.HomeScore.Current,
		AwayScore:   ev.AwayScore.Current,
		Stats:       flattenStatistics(stats),
		Incidents:   incidents,
	}
	if ev.StartTimestamp > 0 {
		m.Date = time.Unix(ev.StartTimestamp, 0).UTC()
	}
	return m
}

func toTeamRef(t sofaTeam) models.TeamRef {
	ref := models.TeamRef{Name: t.Name, ShortName: t.ShortName}
	if t.ID != 0 {
		ref.ID = strconv.FormatInt(t.ID, 10)
	}
	return ref
}

// flattenStatistics keeps the full-match period; other periods are used
// only when no ALL period is reported.
func flattenStatistics(resp sofaStatisticsResponse) []models.RawStat {
	if len(resp.Statistics) == 0 {
		return []models.RawStat{}
	}
	period := resp.Statistics[0]
	for _, p := range resp.Statistics {
		if strings.EqualFold(p.Period, "ALL") {
			period = p
			break
		}
	}

	stats := []models.RawStat{}
	for _, g := range period.Groups {
		for _, item := range g.StatisticsItems {
			if item.Name == "" {
				continue
			}
			home := unwrapStat(item.Home)
			if !home.Present() {
				home = unwrapStat(item.HomeValue)
			}
			away := unwrapStat(item.Away)
			if !away.Present() {
				away = unwrapStat(item.AwayValue)
			}
			stats = append(stats, models.RawStat{Name: item.Name, Home: home, Away: away})
		}
	}
	return stats
}

// unwrapStat accepts a scalar or an object carrying value/displayValue.
func unwrapStat(raw json.RawMessage) models.StatValue {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return models.StatValue{}
	}
	if raw[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return models.StatValue{}
		}
		for _, k := range []string{"value", "displayValue", "formattedValue"} {
			if v, ok := obj[k]; ok {
				return unwrapStat(v)
			}
		}
		return models.StatValue{}
	}
	var v models.StatValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return models.StatValue{}
	}
	return v
}

func toIncidents(in []sofaIncident) []models.RawIncident {
	out := []models.RawIncident{}
	for _, inc := range in {
		if !strings.EqualFold(inc.IncidentType, "goal") {
			continue
		}
		out = append(out, models.RawIncident{Type: "goal", Minute: inc.Time + inc.AddedTime, IsHome: inc.IsHome})
	}
	return out
}
