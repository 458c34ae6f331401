package clientstats

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type genericWriter struct {
	io.Writer
}

func (gw *genericWriter) Update(r io.Reader) error {
	_, err := io.Copy(gw, r)
	return err
}

type httpPost struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewGenericClientStatsUpdater can Update any io.Writer.
// It is used by the CLI to write the documents to stdout.
func NewGenericClientStatsUpdater(w io.Writer) Updater {
	return &genericWriter{w}
}

// NewClientStatsHTTPPostUpdater is used when the update endpoint
// is reachable via an HTTP POST request. Each request is bounded
// by the given timeout.
func NewClientStatsHTTPPostUpdater(u string, timeout time.Duration) Updater {
	return &httpPost{url: u, timeout: timeout, client: http.DefaultClient}
}

func (gw *httpPost) Update(body io.Reader) error {
	ctx := context.Background()
	if gw.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gw.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gw.url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := gw.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Debug("Could not close response body")
		}
	}()
	if resp.StatusCode != http.StatusOK {
		content, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		if err != nil {
			return fmt.Errorf("error reading response body for non-200 response status code (%d), err=%w", resp.StatusCode, err)
		}
		return fmt.Errorf("non-200 response status code (%d). response body=%s", resp.StatusCode, content)
	}

	return nil
}
