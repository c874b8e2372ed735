package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "guardswap/internal/shared/errors"

	"github.com/cenkalti/backoff/v5"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const fetchMaxTries = 3

// fetcher wraps the fasthttp client with JSON decoding and retry of
// transient failures. Client errors (4xx) are terminal; network errors and
// server errors are retried with exponential backoff.
type fetcher struct {
	http    *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

func newFetcher(timeout time.Duration, logger *zap.Logger) *fetcher {
	return &fetcher{
		http: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		timeout: timeout,
		logger:  logger,
	}
}

func (f *fetcher) getJSON(ctx context.Context, url string, v interface{}) error {
	operation := func() (struct{}, error) {
		if err := ctx.Err(); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, f.fetchOnce(url, v)
	}

	notify := func(err error, duration time.Duration) {
		f.logger.Debug("Retrying upstream fetch",
			zap.String("url", url),
			zap.Duration("backoff", duration),
			zap.Error(err))
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(fetchMaxTries),
		backoff.WithNotify(notify))
	return err
}

func (f *fetcher) fetchOnce(url string, v interface{}) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := f.http.DoTimeout(req, resp, f.timeout); err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrExternalService, url, err)
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK {
		err := fmt.Errorf("%w: HTTP %d for %s", apperrors.ErrExternalService, status, url)
		if status >= 400 && status < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: malformed payload from %s: %v", apperrors.ErrExternalService, url, err))
	}
	return nil
}
