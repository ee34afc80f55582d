// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/events"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/supervisor"
)

// EventComponents holds the document event bus and the router consuming it.
type EventComponents struct {
	Bus    *events.Bus
	Router *events.Router
}

// InitEvents builds the bus and registers the document handlers. store may
// be nil.
func InitEvents(cfg *config.EventsConfig, store events.StatusStore) (*EventComponents, error) {
	logger := logging.NewWatermillLogger()

	router, err := events.NewRouter(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}
	bus := events.NewBus(cfg, logger)
	events.NewHandlers(store).Register(router, bus.Subscriber())

	return &EventComponents{Bus: bus, Router: router}, nil
}

// Start supervises the router in the data layer and blocks until every
// handler is subscribed. The Go channel pub/sub drops messages published
// before a subscriber exists.
func (c *EventComponents) Start(ctx context.Context, tree *supervisor.SupervisorTree, timeout time.Duration) error {
	tree.AddDataService(c.Router)

	select {
	case <-c.Router.Running():
		logging.Info().Msg("Event router running")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("event router not running after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown closes the bus. The router is stopped by the supervisor.
func (c *EventComponents) Shutdown() {
	if c == nil || c.Bus == nil {
		return
	}
	if err := c.Bus.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing event bus")
	}
}
