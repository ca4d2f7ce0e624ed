// Package twitter fetches single posts from the Twitter v1.1 REST API.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/hpungsan/roost/internal/archive"
	"github.com/hpungsan/roost/internal/config"
	"github.com/hpungsan/roost/internal/errors"
	"github.com/hpungsan/roost/internal/logger"
)

const maxResponseBytes = 4 << 20

// Options configures a Client.
type Options struct {
	Credentials config.TwitterConfig
	BaseURL     string
	Timeout     time.Duration
	// Base is the unsigned client requests are sent through. Optional.
	Base   *http.Client
	Logger *slog.Logger
}

// Client is an OAuth1-signed API client.
type Client struct {
	http    *http.Client
	baseURL string
	log     *slog.Logger
}

// New builds a client from explicit credentials. All four values are required.
func New(opts Options) (*Client, error) {
	if !opts.Credentials.Complete() {
		return nil, errors.NewInvalidRequest(
			"twitter credentials are incomplete; set TWITTER_CONSUMER_KEY, TWITTER_CONSUMER_SECRET, TWITTER_ACCESS_TOKEN_KEY and TWITTER_ACCESS_TOKEN_SECRET")
	}
	if opts.BaseURL == "" {
		return nil, errors.NewInvalidRequest("api base url is required")
	}

	base := opts.Base
	if base == nil {
		base = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	cred := opts.Credentials
	oauthConfig := oauth1.NewConfig(cred.ConsumerKey, cred.ConsumerSecret)
	token := oauth1.NewToken(cred.AccessTokenKey, cred.AccessTokenSecret)

	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, base)
	signed := oauthConfig.Client(ctx, token)
	signed.Timeout = opts.Timeout

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		http:    signed,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		log:     log,
	}, nil
}

// GetPost fetches one post by numeric id.
func (c *Client) GetPost(ctx context.Context, id string) (archive.Post, error) {
	target := "post " + id

	q := url.Values{}
	q.Set("id", id)
	q.Set("tweet_mode", "extended")
	endpoint := c.baseURL + "/statuses/show.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return archive.Post{}, errors.NewFetchFailure(target, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return archive.Post{}, errors.NewCancelled("fetch post")
		}
		return archive.Post{}, errors.NewFetchFailure(target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return archive.Post{}, errors.NewFetchFailure(target, err)
	}
	c.log.Debug("api response", "id", id, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return archive.Post{}, errors.NewFetchFailure(target, apiError(resp.StatusCode, body))
	}

	var st status
	if err := json.Unmarshal(body, &st); err != nil {
		return archive.Post{}, errors.NewFetchFailure(target, fmt.Errorf("decode response: %w", err))
	}
	if st.IDStr == "" {
		return archive.Post{}, errors.NewFetchFailure(target, fmt.Errorf("response has no id_str"))
	}
	return st.toPost(), nil
}

type errorBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func apiError(statusCode int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Errors) > 0 {
		return fmt.Errorf("api returned %d: %s (code %d)", statusCode, eb.Errors[0].Message, eb.Errors[0].Code)
	}
	return fmt.Errorf("api returned %d", statusCode)
}
