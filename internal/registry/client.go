package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/quantmind-br/depdiff/internal/domain"
	"github.com/quantmind-br/depdiff/internal/utils"
)

const defaultUserAgent = "depdiff/1.0"

// hostPriority is the fixed priority among known hosting patterns when
// selecting the repository URL from metadata.
var hostPriority = []string{
	"https://github.com/",
	"https://gitlab.com/",
	"https://bitbucket.org/",
}

// Client talks to a PyPI-compatible JSON API and downloads release
// artifacts. All requests go through an exponential-backoff retrier.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	retrier    *Retrier
	logger     *utils.Logger
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Logger     *utils.Logger
}

// NewClient creates a new registry client
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://pypi.org"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		retrier: NewRetrier(RetrierOptions{
			MaxRetries:      opts.MaxRetries,
			InitialInterval: 1 * time.Second,
			MaxInterval:     30 * time.Second,
			Multiplier:      2.0,
		}),
		logger: logger.WithComponent("registry"),
	}
}

// infoPayload mirrors the "info" object of the registry JSON document.
type infoPayload struct {
	HomePage    string            `json:"home_page"`
	ProjectURL  string            `json:"project_url"`
	ProjectURLs map[string]string `json:"project_urls"`
}

// urlPayload mirrors one entry of the "urls" array.
type urlPayload struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	PackageType string `json:"packagetype"`
}

type metadataPayload struct {
	Info infoPayload  `json:"info"`
	URLs []urlPayload `json:"urls"`
}

// Lookup fetches metadata for one package version.
func (c *Client) Lookup(ctx context.Context, name, version string) (*domain.PackageMetadata, error) {
	endpoint := fmt.Sprintf("%s/pypi/%s/%s/json", c.baseURL, name, version)

	c.logger.Debug().Str("url", endpoint).Msg("Fetching package metadata")

	body, err := RetryWithValue(ctx, c.retrier, func() ([]byte, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}

	var payload metadataPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding metadata for %s %s: %w", name, version, err)
	}

	meta := &domain.PackageMetadata{
		Name:          name,
		Version:       version,
		RepositoryURL: selectRepositoryURL(payload.Info),
	}
	for _, u := range payload.URLs {
		meta.Artifacts = append(meta.Artifacts, domain.Artifact{
			URL:         u.URL,
			Filename:    u.Filename,
			PackageType: u.PackageType,
		})
	}

	return meta, nil
}

// Download streams the artifact at url into the file at dest.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	c.logger.Debug().Str("url", url).Str("dest", dest).Msg("Downloading artifact")

	return c.retrier.Retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &domain.RetryableError{Err: domain.NewFetchError(url, 0, err)}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fetchErr := domain.NewFetchError(url, resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode))
			if ShouldRetryStatus(resp.StatusCode) {
				return &domain.RetryableError{Err: fetchErr}
			}
			return fetchErr
		}

		out, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("creating %s: %w", dest, err)
		}

		if _, err := io.Copy(out, resp.Body); err != nil {
			out.Close()
			os.Remove(dest)
			return &domain.RetryableError{Err: domain.NewFetchError(url, 0, err)}
		}

		return out.Close()
	})
}

// get performs one GET request and returns the body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.RetryableError{Err: domain.NewFetchError(url, 0, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fetchErr := domain.NewFetchError(url, resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode))
		if ShouldRetryStatus(resp.StatusCode) {
			return nil, &domain.RetryableError{Err: fetchErr}
		}
		return nil, fetchErr
	}

	return io.ReadAll(resp.Body)
}

// selectRepositoryURL picks a single best repository URL from the metadata
// by fixed host priority. Returns an empty string when no candidate exists.
func selectRepositoryURL(info infoPayload) string {
	candidates := make([]string, 0, 8)
	for _, key := range []string{"Source", "Source Code", "Repository", "Homepage"} {
		if v := info.ProjectURLs[key]; v != "" {
			candidates = append(candidates, v)
		}
	}
	if info.HomePage != "" {
		candidates = append(candidates, info.HomePage)
	}
	if info.ProjectURL != "" {
		candidates = append(candidates, info.ProjectURL)
	}

	for _, host := range hostPriority {
		for _, candidate := range candidates {
			if strings.HasPrefix(candidate, host) {
				return candidate
			}
		}
	}

	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}
