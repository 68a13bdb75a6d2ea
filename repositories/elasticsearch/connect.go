package elasticsearch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	es7 "github.com/elastic/go-elasticsearch/v7"
)

// Connect builds a client retrying overloaded or unavailable nodes with
// exponential backoff, up to five attempts per request.
func Connect(url string, username string, password string) (*es7.Client, error) {
	retryBackoff := backoff.NewExponentialBackOff()

	client, err := es7.NewClient(es7.Config{
		Addresses: []string{url},
		Username:  username,
		Password:  password,

		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests},
		RetryBackoff: func(attempt int) time.Duration {
			if attempt == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	fmt.Printf("Using ES7 Client Version %s\n", es7.Version)
	return client, nil
}

// WaitForCluster pings until the cluster answers or maxWait elapses, so
// the registry is not queried against a node that is still starting.
func WaitForCluster(ctx context.Context, es *es7.Client, maxWait time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxWait

	ping := func() error {
		res, err := es.Ping(es.Ping.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("cluster answered %s", res.Status())
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("waiting for elasticsearch: %w", err)
	}
	return nil
}
