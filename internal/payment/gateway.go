package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropkickfish/barq-client/internal/httpclient"
)

const payPath = "/pay"

// Poster is the HTTP dependency of HTTPGateway.
type Poster interface {
	PostJSON(ctx context.Context, path string, in, out any, header http.Header) error
}

// HTTPGateway posts payments to <venuePath>/pay.
type HTTPGateway struct {
	client Poster
}

// NewHTTPGateway creates an HTTPGateway.
func NewHTTPGateway(client Poster) *HTTPGateway {
	return &HTTPGateway{client: client}
}

// Pay submits req. Transport failures wrap httpclient.ErrNetwork; any non-2xx
// reply wraps ErrBackendRejection.
func (g *HTTPGateway) Pay(ctx context.Context, req Request, idempotencyKey string) (*Response, error) {
	var resp Response
	err := g.client.PostJSON(ctx, payPath, req, &resp, idempotencyHeader(idempotencyKey))
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("%w: %v", ErrBackendRejection, err)
		}
		return nil, fmt.Errorf("submit payment: %w", err)
	}
	return &resp, nil
}
