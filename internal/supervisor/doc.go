// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

/*
Package supervisor runs the long-lived parts of the Bhashasutra server under
a suture v4 supervisor tree.

# Tree

	bhashasutra
	├── data-layer
	│   ├── events-router      Watermill router for document lifecycle events
	│   └── limiter-janitor    reclaims idle throttle and rate limit state
	├── messaging-layer
	│   └── websocket-hub      tracks /rag/ws and /ws/bhashagyan sessions
	└── api-layer
	    └── http-server        services.HTTPServerService

Each layer counts failures on its own, so an event handler stuck in a
restart loop backs off without interrupting HTTP traffic.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(eventsRouter)
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)

Supervisor events (start, failure, backoff, timeout) are logged through
sutureslog onto the zerolog bridge in internal/logging.

# Restart Policy

TreeConfig zero values fall back to suture's defaults: threshold 5,
decay 30s, backoff 15s, per-service stop timeout 10s. A service that
returns nil is not restarted. Any other return is a crash.

DuckDB and the Badger embedding cache are libraries, not services, and
are closed by main after the tree stops. Services still running past
ShutdownTimeout show up in UnstoppedServiceReport.
*/
package supervisor
