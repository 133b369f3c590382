package candidates

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okian/eraquiz/internal/domain/model"
	"github.com/okian/eraquiz/pkg/logger"
)

const tmdbImageBase = "https://image.tmdb.org/t/p/w185"

// TMDBSource pulls popular people and their known-for titles from The Movie
// Database. Requests are throttled client-side and guarded by a circuit
// breaker so a failing upstream is not hammered on every pool refresh.
type TMDBSource struct {
	baseURL string
	token   string
	pages   int
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]model.Candidate]
	log     logger.Logger
}

// TMDBOption configures a TMDBSource.
type TMDBOption func(*TMDBSource)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) TMDBOption {
	return func(s *TMDBSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithPages sets how many /person/popular pages are fetched.
func WithPages(n int) TMDBOption {
	return func(s *TMDBSource) {
		if n > 0 {
			s.pages = n
		}
	}
}

// WithRequestsPerSecond sets the client-side request budget.
func WithRequestsPerSecond(rps float64) TMDBOption {
	return func(s *TMDBSource) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithSourceLogger sets the logger used for breaker state changes.
func WithSourceLogger(l logger.Logger) TMDBOption {
	return func(s *TMDBSource) {
		if l != nil {
			s.log = l
		}
	}
}

// NewTMDBSource builds a client for the TMDB v3 API at baseURL.
func NewTMDBSource(baseURL, token string, opts ...TMDBOption) *TMDBSource {
	s := &TMDBSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		pages:   3,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(4), 1),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.breaker = gobreaker.NewCircuitBreaker[[]model.Candidate](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn(context.Background(), "circuit breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	return s
}

// BreakerState reports the circuit breaker state, e.g. "closed" or "open".
func (s *TMDBSource) BreakerState() string {
	return s.breaker.State().String()
}

// Candidates implements Source. The whole multi-page fetch counts as one
// breaker call.
func (s *TMDBSource) Candidates(ctx context.Context) ([]model.Candidate, error) {
	out, err := s.breaker.Execute(func() ([]model.Candidate, error) {
		return s.fetchAll(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("tmdb: %w: %w", ErrSourceUnavailable, err)
	}
	return out, nil
}

func (s *TMDBSource) fetchAll(ctx context.Context) ([]model.Candidate, error) {
	var out []model.Candidate
	for page := 1; page <= s.pages; page++ {
		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Results {
			out = append(out, p.candidate())
		}
		if page >= resp.TotalPages {
			break
		}
	}
	return out, nil
}

func (s *TMDBSource) fetchPage(ctx context.Context, page int) (*popularPage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{"page": {strconv.Itoa(page)}}
	reqURL := s.baseURL + "/person/popular?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("popular people page %d: %w", page, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("popular people page %d returned HTTP %d", page, resp.StatusCode)
	}

	var pp popularPage
	if err := json.NewDecoder(resp.Body).Decode(&pp); err != nil {
		return nil, fmt.Errorf("parsing popular people page %d: %w", page, err)
	}
	return &pp, nil
}

type popularPage struct {
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
	Results    []person `json:"results"`
}

type person struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	ProfilePath string     `json:"profile_path"`
	Department  string     `json:"known_for_department"`
	Popularity  float64    `json:"popularity"`
	KnownFor    []knownFor `json:"known_for"`
}

type knownFor struct {
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

func (p person) candidate() model.Candidate {
	c := model.Candidate{
		ID:         "tmdb-" + strconv.Itoa(p.ID),
		Name:       p.Name,
		Category:   strings.ToLower(p.Department),
		Popularity: p.Popularity,
	}
	if p.ProfilePath != "" {
		c.ImageRef = tmdbImageBase + p.ProfilePath
	}
	for _, k := range p.KnownFor {
		title := k.Title
		if title == "" {
			title = k.Name
		}
		date := k.ReleaseDate
		if date == "" {
			date = k.FirstAirDate
		}
		c.Works = append(c.Works, model.Work{Title: title, Year: yearOf(date)})
	}
	return c
}

// yearOf parses the year of a YYYY-MM-DD date, nil when absent or malformed.
func yearOf(date string) *int {
	if len(date) < 4 {
		return nil
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return nil
	}
	return &y
}
