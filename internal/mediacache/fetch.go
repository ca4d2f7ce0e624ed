package mediacache

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// maxImageBytes caps a single download.
const maxImageBytes = 32 << 20

// Payload is a fetched image body with the server-declared content type.
type Payload struct {
	Body        []byte
	ContentType string
}

// Fetcher downloads the bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Payload, error)
}

// HTTPFetcher fetches images over HTTP.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher whose client gives up after timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Fetch performs a GET and returns the body. Non-2xx responses and empty
// bodies are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Payload{}, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return Payload{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Payload{}, err
	}
	if len(body) > maxImageBytes {
		return Payload{}, fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	if len(body) == 0 {
		return Payload{}, stderrors.New("empty body")
	}
	return Payload{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}
