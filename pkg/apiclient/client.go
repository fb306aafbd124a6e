// Package apiclient talks to the FedLearn platform REST API.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"fedlearn.dev/dashboard/pkg/apperror"
	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fedlearn_upstream_requests_total",
	Help: "Requests sent to the platform API by method and status code.",
}, []string{"method", "code"})

type Config struct {
	BaseURL string
	Timeout time.Duration
	// LongTimeout bounds uploads and streamed downloads.
	LongTimeout time.Duration
	// Attempts is the total number of tries made by Retrying requests.
	Attempts  int
	RetryWait time.Duration
}

type Client struct {
	rest     *resty.Client
	retrying *resty.Client
	long     *resty.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.LongTimeout <= 0 {
		cfg.LongTimeout = 5 * time.Minute
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	retrying := newResty(cfg.BaseURL, cfg.Timeout).
		SetRetryCount(cfg.Attempts - 1).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryWait).
		SetRetryAfter(func(*resty.Client, *resty.Response) (time.Duration, error) {
			return cfg.RetryWait, nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r == nil || r.IsError()
		})

	return &Client{
		rest:     newResty(cfg.BaseURL, cfg.Timeout),
		retrying: retrying,
		long:     newResty(cfg.BaseURL, cfg.LongTimeout),
	}
}

func newResty(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
			upstreamRequests.WithLabelValues(r.Request.Method, strconv.Itoa(r.StatusCode())).Inc()
			slog.Debug("platform api", "method", r.Request.Method, "url", r.Request.URL, "status", r.StatusCode(), "duration", r.Time().String())
			return nil
		}).
		OnError(func(r *resty.Request, err error) {
			upstreamRequests.WithLabelValues(r.Method, "error").Inc()
			slog.Warn("platform api unreachable", "method", r.Method, "url", r.URL, "error", err)
		})
}

// R starts a single-attempt request.
func (c *Client) R(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx)
}

// Retrying starts a request that is re-sent on failure with a fixed delay.
func (c *Client) Retrying(ctx context.Context) *resty.Request {
	return c.retrying.R().SetContext(ctx)
}

// Long starts a request with the upload/download timeout.
func (c *Client) Long(ctx context.Context) *resty.Request {
	return c.long.R().SetContext(ctx)
}

type errorBody struct {
	Message string `json:"message"`
}

// Check converts a failed exchange into an *apperror.AppError carrying the
// platform's message, or fallback when the platform sent none.
func Check(resp *resty.Response, err error, fallback string) error {
	if err != nil {
		return apperror.New(http.StatusBadGateway, fallback, fmt.Errorf("%w: %w", apperror.ErrUpstream, err))
	}
	if resp.IsError() {
		return apperror.FromStatus(resp.StatusCode(), messageFrom(resp.Body(), fallback))
	}
	return nil
}

func messageFrom(body []byte, fallback string) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
		return eb.Message
	}
	return fallback
}

// Do executes req and decodes a successful JSON body into out (if non-nil).
func Do(req *resty.Request, method, path string, out any, fallback string) error {
	resp, err := req.Execute(method, path)
	if err := Check(resp, err, fallback); err != nil {
		return err
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return apperror.New(http.StatusBadGateway, fallback, fmt.Errorf("%w: decoding %s %s: %w", apperror.ErrUpstream, method, path, err))
	}
	return nil
}

// Stream is an open platform response body. Callers must Close it.
type Stream struct {
	Body          io.ReadCloser
	ContentType   string
	Disposition   string
	ContentLength int64
}

func (s *Stream) Close() error {
	return s.Body.Close()
}

// Stream performs a GET whose body is handed back unread.
func (c *Client) Stream(ctx context.Context, path string, query map[string]string, fallback string) (*Stream, error) {
	resp, err := c.Long(ctx).
		SetDoNotParseResponse(true).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return nil, Check(nil, err, fallback)
	}

	raw := resp.RawResponse
	if raw.StatusCode >= http.StatusBadRequest {
		defer raw.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(raw.Body, 64<<10))
		return nil, apperror.FromStatus(raw.StatusCode, messageFrom(body, fallback))
	}

	return &Stream{
		Body:          raw.Body,
		ContentType:   raw.Header.Get("Content-Type"),
		Disposition:   raw.Header.Get("Content-Disposition"),
		ContentLength: raw.ContentLength,
	}, nil
}

// ID formats a platform primary key for query strings and form fields.
func ID(v int64) string {
	return strconv.FormatInt(v, 10)
}
