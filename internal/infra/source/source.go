// Package source opens tally inputs from stdin, the local filesystem or an
// HTTP(S) URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// Stdin is the location that selects standard input.
const Stdin = "-"

// ErrUnexpectedStatus is returned when a remote input answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected http status")

// Opener resolves a location into a readable stream.
type Opener struct {
	client *retryablehttp.Client
	stdin  io.Reader
}

// New returns an Opener that fetches remote inputs with client.
func New(client *retryablehttp.Client) *Opener {
	return &Opener{
		client: client,
		stdin:  os.Stdin,
	}
}

// Open returns a reader for location. An empty location or "-" reads stdin,
// an http:// or https:// URL is fetched with GET, anything else is a file path.
// The caller must close the returned reader.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	switch {
	case location == "" || location == Stdin:
		return io.NopCloser(o.stdin), nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return o.fetch(ctx, location)
	default:
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		return f, nil
	}
}

// fetch GETs url and returns the response body.
func (o *Opener) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build input request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch input: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	return resp.Body, nil
}
