// Package client talks to the nutrition analysis API.
package client

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/nutricluster/internal/api"
)

type NutriClientInterface interface {
	Health(ctx context.Context) (api.HealthResponse, error)
	Analyze(ctx context.Context, req api.AnalyzeRequest) (api.AnalyzeResponse, error)
	UploadCSV(ctx context.Context, csv []byte, params api.AnalyzeParams) (api.AnalyzeResponse, error)
	Recommend(ctx context.Context, req api.RecommendRequest) (api.RecommendResponse, error)
	Bounds(ctx context.Context, req api.BoundsRequest) (api.BoundsResponse, error)
}

// APIError is an error envelope returned by the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
}

type Client struct {
	cfg     *Config
	client  *resty.Client
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

var _ NutriClientInterface = (*Client)(nil)

func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = retryLogger{}

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimSuffix(cfg.ServerURL, "/")).
		SetTimeout(cfg.Timeout).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	c := &Client{cfg: cfg, client: client}
	if cfg.ZstdCompression {
		client.SetHeader("Accept-Encoding", "zstd")

		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			encoder.Close()
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		c.encoder, c.decoder = encoder, decoder
	}

	log.Debug().Str("server_url", cfg.ServerURL).Bool("zstd", cfg.ZstdCompression).
		Int("max_retries", cfg.MaxRetries).Msg("nutri client created")
	return c, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	return send[api.HealthResponse](ctx, c, http.MethodGet, api.HealthPath, nil, "", nil)
}

func (c *Client) Analyze(ctx context.Context, req api.AnalyzeRequest) (api.AnalyzeResponse, error) {
	return postJSON[api.AnalyzeResponse](ctx, c, api.AnalyzePath, req)
}

func (c *Client) Recommend(ctx context.Context, req api.RecommendRequest) (api.RecommendResponse, error) {
	return postJSON[api.RecommendResponse](ctx, c, api.RecommendPath, req)
}

func (c *Client) Bounds(ctx context.Context, req api.BoundsRequest) (api.BoundsResponse, error) {
	return postJSON[api.BoundsResponse](ctx, c, api.BoundsPath, req)
}

// UploadCSV sends a raw CSV dataset, passing params in the query string.
func (c *Client) UploadCSV(ctx context.Context, csv []byte, params api.AnalyzeParams) (api.AnalyzeResponse, error) {
	if len(csv) == 0 {
		return api.AnalyzeResponse{}, errors.New("empty csv upload")
	}
	return send[api.AnalyzeResponse](ctx, c, http.MethodPost, api.UploadPath, csv, "text/csv", QueryFromParams(params))
}

// QueryFromParams encodes params the way the upload route reads them.
func QueryFromParams(p api.AnalyzeParams) url.Values {
	q := url.Values{}
	if p.K != 0 {
		q.Set("k", strconv.Itoa(p.K))
	}
	if p.Seed != nil {
		q.Set("seed", strconv.FormatUint(*p.Seed, 10))
	}
	if p.FeatureSpace != "" {
		q.Set("feature_space", p.FeatureSpace)
	}
	if p.Top != 0 {
		q.Set("top", strconv.Itoa(p.Top))
	}
	if p.Bins != 0 {
		q.Set("bins", strconv.Itoa(p.Bins))
	}
	if len(p.Weights) > 0 {
		pairs := make([]string, 0, len(p.Weights))
		for _, name := range slices.Sorted(maps.Keys(p.Weights)) {
			pairs = append(pairs, name+"="+formatFloat(p.Weights[name]))
		}
		q.Set("weights", strings.Join(pairs, ","))
	}
	for _, r := range p.Filters {
		q.Add("filter", r.String())
	}
	return q
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func postJSON[T any](ctx context.Context, c *Client, path string, payload any) (T, error) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to marshal request: %w", err)
	}
	return send[T](ctx, c, http.MethodPost, path, data, "application/json", nil)
}

// send performs one request and unwraps the StdResponse envelope.
func send[T any](ctx context.Context, c *Client, method, path string, body []byte, contentType string, query url.Values) (T, error) {
	var zero T

	req := c.client.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		if c.encoder != nil {
			body = c.encoder.EncodeAll(body, nil)
			req.SetHeader("Content-Encoding", "zstd")
		}
		req.SetHeader("Content-Type", contentType).SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("request failed")
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}

	raw := resp.Body()
	if c.decoder != nil && strings.EqualFold(resp.Header().Get("Content-Encoding"), "zstd") {
		if raw, err = c.decoder.DecodeAll(raw, nil); err != nil {
			return zero, fmt.Errorf("failed to decompress response: %w", err)
		}
	}

	var envelope api.StdResponse[T]
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		if resp.IsError() {
			return zero, &APIError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(string(raw))}
		}
		return zero, fmt.Errorf("failed to unmarshal StdResponse: %w", err)
	}
	if envelope.Error != nil {
		return zero, &APIError{StatusCode: resp.StatusCode(), Message: *envelope.Error}
	}
	if resp.IsError() {
		return zero, &APIError{StatusCode: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	}
	return envelope.Body, nil
}

// retryLogger routes retryablehttp logs through zerolog.
type retryLogger struct{}

func (retryLogger) Error(msg string, keysAndValues ...any) {
	log.Error().Fields(keysAndValues).Msg(msg)
}

func (retryLogger) Info(msg string, keysAndValues ...any) {
	log.Info().Fields(keysAndValues).Msg(msg)
}

func (retryLogger) Debug(msg string, keysAndValues ...any) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (retryLogger) Warn(msg string, keysAndValues ...any) {
	log.Warn().Fields(keysAndValues).Msg(msg)
}
