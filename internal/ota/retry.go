package ota

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// doWithRetry sends the request produced by build, retrying transport errors with
// exponential backoff. Any HTTP response, whatever its status, ends the
// retries. build is called once per attempt so request bodies can be
// replayed.
func (c *HTTPClient) doWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	attempt := 0

	operation := func() error {
		attempt++
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		r, err := c.client.Do(req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	notify := func(err error, next time.Duration) {
		log.Warnf("Retry %d after network error: %v", attempt, err)
	}

	if err := backoff.RetryNotify(operation, c.newBackOff(ctx), notify); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.initialInterval << maxRetries
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}
