// Package venue loads the bar's name, catalog and open flag, and re-checks the
// open flag right before payment.
package venue

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropkickfish/barq-client/internal/catalog"
	"github.com/dropkickfish/barq-client/internal/httpclient"
	"go.uber.org/zap"
)

const menuPath = "/menu"

// ErrVenueNotFound is returned when the venue path does not exist.
var ErrVenueNotFound = errors.New("venue not found")

// State is a snapshot of the venue taken by Load.
type State struct {
	Name       string
	Catalog    catalog.Catalog
	HasCatalog bool
	IsOpen     bool
}

// AcceptingOrders reports whether the venue has a catalog and is open.
func (s State) AcceptingOrders() bool {
	return s.HasCatalog && s.IsOpen
}

// menuResponse is the wire shape of GET <venuePath>/menu.
type menuResponse struct {
	Name    string          `json:"name"`
	Catalog *[]catalog.Item `json:"catalog"`
	Open    *bool           `json:"open"`
}

// Getter is the HTTP dependency of Session.
type Getter interface {
	GetJSON(ctx context.Context, path string, out any) error
}

// Session talks to the venue's menu endpoint.
type Session struct {
	client Getter
	logger *zap.Logger
}

// NewSession creates a Session.
func NewSession(client Getter, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{client: client, logger: logger}
}

// Load fetches the venue. Failures are returned as-is; nothing is retried.
func (s *Session) Load(ctx context.Context) (State, error) {
	resp, err := s.fetch(ctx)
	if err != nil {
		return State{}, err
	}

	st := State{Name: resp.Name}
	if resp.Catalog != nil {
		c, dropped := catalog.New(*resp.Catalog)
		for _, it := range dropped {
			s.logger.Warn("dropping invalid catalog item",
				zap.String("id", it.ID), zap.String("price", it.Price.String()))
		}
		st.Catalog = c
		st.HasCatalog = true
	}
	// Only an explicit false closes the venue on load.
	st.IsOpen = resp.Open == nil || *resp.Open

	s.logger.Info("venue loaded",
		zap.String("name", st.Name),
		zap.Int("items", st.Catalog.Len()),
		zap.Bool("has_catalog", st.HasCatalog),
		zap.Bool("open", st.IsOpen),
	)
	return st, nil
}

// CheckOpenNow re-queries the venue and reports whether it is open right now.
// It always fetches; a missing flag counts as closed.
func (s *Session) CheckOpenNow(ctx context.Context) (bool, error) {
	resp, err := s.fetch(ctx)
	if err != nil {
		return false, err
	}
	open := resp.Open != nil && *resp.Open
	s.logger.Debug("venue open check", zap.Bool("open", open))
	return open, nil
}

func (s *Session) fetch(ctx context.Context) (*menuResponse, error) {
	var resp menuResponse
	if err := s.client.GetJSON(ctx, menuPath, &resp); err != nil {
		if httpclient.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrVenueNotFound, err)
		}
		return nil, fmt.Errorf("fetch menu: %w", err)
	}
	return &resp, nil
}
