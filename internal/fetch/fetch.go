package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// UserAgent identifies the ingestion bot on every outbound request.
const UserAgent = "freestuffmap-bot/1.0 (+https://freestuffmap.org)"

const maxBodyBytes = 5 << 20

// ErrFetch wraps every failure mode of a fetch (network, non-2xx, unparsable
// body). Scrapers treat them uniformly: log and move on.
var ErrFetch = errors.New("fetch failed")

type Fetcher struct {
	client    *http.Client
	userAgent string
}

func New() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 25 * time.Second,
		},
		userAgent: UserAgent,
	}
}

func (f *Fetcher) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, url, resp.StatusCode)
	}

	body, err := readAllLimit(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	return body, nil
}

// HTML fetches url and parses the body into a queryable document.
func (f *Fetcher) HTML(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	return doc, nil
}

// JSON fetches url and decodes the body into out. Extra headers (e.g. a
// bearer token) are passed through verbatim.
func (f *Fetcher) JSON(ctx context.Context, url string, headers map[string]string, out any) error {
	body, err := f.get(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	return nil
}

func readAllLimit(r io.Reader, max int64) ([]byte, error) {
	lr := &io.LimitedReader{R: r, N: max}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if lr.N <= 0 {
		return nil, fmt.Errorf("response too large")
	}
	return b, nil
}
