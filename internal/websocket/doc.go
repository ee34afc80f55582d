// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

/*
Package websocket serves the conversational websocket routes.

Unlike a broadcast hub, every connection here is a private conversation:
the RAG route answers each text frame with a retrieval-augmented reply and
the BhashaGyan route runs a tutoring chat. Both plug into the same
machinery through the Handler interface.

Key Components:

  - Hub: tracks live sessions so a supervised shutdown closes every
    connection. It runs as a suture service.
  - Session: one connection with three goroutines.
  - Endpoint: an http.Handler that upgrades a request and starts a
    Session for a Handler.

Each session runs:

  - readPump: reads text frames into a bounded queue and handles pongs
  - process: hands queued frames to the Handler one at a time
  - writePump: writes queued replies and sends pings

Replies are sent with Session.Send, which never blocks. A client that stops
reading gets ErrSendBufferFull rather than stalling the handler.

Usage:

	hub := websocket.NewHub()
	tree.AddMessagingService(hub)

	r.Handle("/rag/ws", &websocket.Endpoint{
	    Name:     "rag",
	    Hub:      hub,
	    Handler:  ragHandler,
	    Upgrader: websocket.NewUpgrader(cfg.Security.CORSOrigins),
	})

Metrics are labeled by Endpoint.Name: websocket_connections,
websocket_messages_received_total, websocket_messages_sent_total and
websocket_errors_total.
*/
package websocket
