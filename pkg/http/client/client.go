package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Interface interface {
	Get(ctx context.Context, path string, header http.Header) (*Response, error)
	PostForm(ctx context.Context, path string, form url.Values, header http.Header) (*Response, error)
}

type Client struct {
	baseURL      string
	httpClient   *http.Client
	GetFunc      func(ctx context.Context, path string, header http.Header) (*Response, error)
	PostFormFunc func(ctx context.Context, path string, form url.Values, header http.Header) (*Response, error)
}

type Options struct {
	BaseURL string
	Timeout time.Duration
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: opts.BaseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

func (c *Client) Get(ctx context.Context, path string, header http.Header) (*Response, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, path, header)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return nil, err
	}
	copyHeader(req.Header, header)

	return c.do(req)
}

func (c *Client) PostForm(ctx context.Context, path string, form url.Values, header http.Header) (*Response, error) {
	if c.PostFormFunc != nil {
		return c.PostFormFunc(ctx, path, form, header)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	copyHeader(req.Header, header)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

func (c *Client) resolve(path string) string {
	if c.baseURL == "" {
		return path // If no base URL, treat path as full URL
	}
	return c.baseURL + path
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			return
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}
