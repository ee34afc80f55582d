// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package events

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/bhashasutra/internal/config"
	"github.com/tomtom215/bhashasutra/internal/logging"
	"github.com/tomtom215/bhashasutra/internal/metrics"
	"github.com/tomtom215/bhashasutra/internal/models"
)

// Bus is the in-process publish/subscribe channel for document lifecycle
// events. It implements rag.Notifier.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewBus creates a Go channel backed bus.
func NewBus(cfg *config.EventsConfig, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, logger),
		logger: logger,
	}
}

// Subscriber returns the subscribing side for the router.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// Publisher returns the raw publishing side.
func (b *Bus) Publisher() message.Publisher {
	return b.pubsub
}

// Publish encodes event and publishes it on topic.
func (b *Bus) Publish(ctx context.Context, topic string, event interface{}) error {
	data, err := marshal(event)
	if err != nil {
		metrics.RecordEvent(topic, false, err)
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetaEventType, topic)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetaRequestID, id)
	}

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return err
	}
	metrics.RecordEvent(topic, true, nil)
	return nil
}

// DocumentIngested publishes TopicDocumentIngested for doc.
func (b *Bus) DocumentIngested(ctx context.Context, doc *models.Document) error {
	return b.Publish(ctx, TopicDocumentIngested, &DocumentIngested{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		ChunkCount: doc.ChunkCount,
		Timestamp:  time.Now().UTC(),
	})
}

// DocumentsCleared publishes TopicDocumentsCleared.
func (b *Bus) DocumentsCleared(ctx context.Context, deleted int64) error {
	return b.Publish(ctx, TopicDocumentsCleared, &DocumentsCleared{
		Deleted:   deleted,
		Timestamp: time.Now().UTC(),
	})
}

// Close stops delivery to subscribers.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
