package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DateLayout is the yyyy-MM-dd form the backend expects.
	DateLayout = "2006-01-02"

	allPath            = "/GetFixturesAll"
	byDatePath         = "/GetFixturesByDate"
	byTeamInSeasonPath = "/GetFixturesByTeamInSeason"
)

var ErrUnexpectedStatus = errors.New("unexpected status code")

// Query is a single read-only request to the statistics backend.
type Query struct {
	Path   string
	Params url.Values
}

func AllQuery() Query {
	return Query{Path: allPath, Params: url.Values{}}
}

func ByDateQuery(date string, isToday bool) Query {
	return Query{
		Path: byDatePath,
		Params: url.Values{
			"date":    []string{date},
			"IsToday": []string{strconv.FormatBool(isToday)},
		},
	}
}

func ByTeamInSeasonQuery(teamName string, season uint16) Query {
	return Query{
		Path: byTeamInSeasonPath,
		Params: url.Values{
			"teamName": []string{teamName},
			"season":   []string{strconv.FormatUint(uint64(season), 10)},
		},
	}
}

// Client calls the statistics backend over HTTP GET. Response bodies are
// returned as opaque text.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend base url must be absolute: %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: u, httpClient: httpClient}, nil
}

// URL resolves q against the client's base address.
func (c *Client) URL(q Query) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + q.Path
	u.RawPath = ""
	u.RawQuery = q.Params.Encode()
	return u.String()
}

func (c *Client) Fetch(ctx context.Context, q Query) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(q), http.NoBody)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
