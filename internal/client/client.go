package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/kma-forecast-service/internal/circuitbreaker"
	"github.com/kjstillabower/kma-forecast-service/internal/models"
	"github.com/kjstillabower/kma-forecast-service/internal/observability"
)

// ForecastClient fetches every village forecast record for a grid cell and issuance.
type ForecastClient interface {
	Fetch(ctx context.Context, cell models.GridCell, base models.ForecastBase) ([]models.RawForecastItem, error)
}

var (
	ErrInvalidServiceKey = errors.New("invalid service key")
	ErrTransport         = errors.New("upstream transport failure")
)

const (
	// PageSize is the numOfRows used for every data page.
	PageSize = 100
	// maxTotalCount bounds the totalCount accepted from a probe. One cell and
	// issuance carries about a thousand records.
	maxTotalCount = 100 * PageSize

	villageForecastPath = "/getVilageFcst"
	dataTypeJSON        = "JSON"
	maxBodyBytes        = 4 << 20
)

// KMAClient calls the village forecast endpoint of the open-data API.
// Its credentials are fixed at construction and safe for concurrent use.
type KMAClient struct {
	serviceKey string
	endpoint   string
	timeout    time.Duration
	client     *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

// NewKMAClient returns a client for the service rooted at baseURL
// (e.g. https://apis.data.go.kr/1360000/VilageFcstInfoService_2.0).
// serviceKey may be given in its encoded (percent-escaped) or decoded form.
func NewKMAClient(serviceKey, baseURL string, timeout time.Duration) (*KMAClient, error) {
	serviceKey = strings.TrimSpace(serviceKey)
	if serviceKey == "" {
		return nil, fmt.Errorf("%w: service key is required", ErrInvalidServiceKey)
	}
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid API URL %q", baseURL)
	}

	return &KMAClient{
		serviceKey: serviceKey,
		endpoint:   strings.TrimRight(baseURL, "/") + villageForecastPath,
		timeout:    timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SetCircuitBreaker routes every upstream call through cb.
func (c *KMAClient) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	c.breaker = cb
}

// BreakerState reports the circuit state, closed when no breaker is set.
func (c *KMAClient) BreakerState() circuitbreaker.State {
	if c.breaker == nil {
		return circuitbreaker.StateClosed
	}
	return c.breaker.State()
}

// Fetch probes for totalCount, then requests pages 1..totalCount/PageSize+1 in
// order and concatenates their items. Any non-zero result code aborts the whole
// fetch with an *UpstreamError and no items.
func (c *KMAClient) Fetch(ctx context.Context, cell models.GridCell, base models.ForecastBase) ([]models.RawForecastItem, error) {
	total, err := c.Probe(ctx, cell, base)
	if err != nil {
		return nil, err
	}

	if total < 0 || total > maxTotalCount {
		return nil, fmt.Errorf("%w: parse response: totalCount %d out of range", ErrTransport, total)
	}

	pages := total/PageSize + 1
	items := make([]models.RawForecastItem, 0, total)
	for pageNo := 1; pageNo <= pages; pageNo++ {
		p, err := c.fetchPage(ctx, cell, base, pageNo, PageSize)
		if err != nil {
			return nil, fmt.Errorf("page %d/%d: %w", pageNo, pages, err)
		}
		items = append(items, p.items...)
	}

	observability.ForecastPagesFetched.Observe(float64(pages))
	observability.ForecastItemsTotal.Add(float64(len(items)))
	return items, nil
}

// Probe requests a single row and returns the envelope's totalCount.
func (c *KMAClient) Probe(ctx context.Context, cell models.GridCell, base models.ForecastBase) (int, error) {
	p, err := c.fetchPage(ctx, cell, base, 1, 1)
	if err != nil {
		return 0, fmt.Errorf("probe: %w", err)
	}
	return p.totalCount, nil
}

func (c *KMAClient) fetchPage(ctx context.Context, cell models.GridCell, base models.ForecastBase, pageNo, numOfRows int) (page, error) {
	if c.breaker == nil {
		return c.callAPI(ctx, cell, base, pageNo, numOfRows)
	}
	var p page
	err := c.breaker.Call(ctx, func() error {
		var callErr error
		p, callErr = c.callAPI(ctx, cell, base, pageNo, numOfRows)
		return callErr
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return page{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return p, err
}

func (c *KMAClient) callAPI(ctx context.Context, cell models.GridCell, base models.ForecastBase, pageNo, numOfRows int) (page, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, cell, base, pageNo, numOfRows)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return page{}, fmt.Errorf("build request: %w", err)
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return page{}, fmt.Errorf("%w: request timeout: %w", ErrTransport, err)
		}
		return page{}, fmt.Errorf("%w: http request failed: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return page{}, fmt.Errorf("%w: HTTP %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return page{}, fmt.Errorf("%w: read response body: %w", ErrTransport, err)
	}

	p, err := decodePage(body)
	if err != nil {
		return page{}, err
	}
	if p.resultCode != ResultOK {
		upstreamErr := MapResultCode(p.resultCode)
		upstreamErr.ResultMsg = p.resultMsg
		observability.WeatherAPIResultCodesTotal.WithLabelValues(string(upstreamErr.Severity)).Inc()
		return page{}, upstreamErr
	}
	observability.WeatherAPIResultCodesTotal.WithLabelValues("ok").Inc()
	return p, nil
}

// buildRequest encodes the query by hand so an already-encoded service key is
// not escaped twice.
func (c *KMAClient) buildRequest(ctx context.Context, cell models.GridCell, base models.ForecastBase, pageNo, numOfRows int) (*http.Request, error) {
	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("numOfRows", strconv.Itoa(numOfRows))
	params.Set("pageNo", strconv.Itoa(pageNo))
	params.Set("dataType", dataTypeJSON)
	params.Set("base_date", base.Date)
	params.Set("base_time", base.Time)
	params.Set("nx", strconv.Itoa(cell.X))
	params.Set("ny", strconv.Itoa(cell.Y))
	endpoint.RawQuery = "serviceKey=" + encodeServiceKey(c.serviceKey) + "&" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

// encodeServiceKey leaves keys issued in their encoded form untouched.
func encodeServiceKey(key string) string {
	if strings.Contains(key, "%") {
		return key
	}
	return url.QueryEscape(key)
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == http.StatusTooManyRequests {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

// IsOutage reports whether err indicates the upstream itself is unhealthy.
// Used by the circuit breaker; bad keys and empty data do not count.
func IsOutage(err error) bool {
	if err == nil {
		return false
	}
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Severity == SeverityTemporaryUnavailable
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTransport)
}
