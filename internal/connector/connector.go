package connector

import (
	"context"
	"time"

	"github.com/hejijunhao/edgepair/internal/model"
)

// Connector defines the interface all log record sources must implement.
type Connector interface {
	// Stream polls or reads the source and sends records in receipt order
	// until ctx is done. The channel is closed when the stream ends.
	Stream(ctx context.Context, cfg ConnectorConfig) (<-chan model.LogRecord, error)

	// Query fetches a single batch of records received after params.After.
	Query(ctx context.Context, cfg ConnectorConfig, params QueryParams) ([]model.LogRecord, error)
}

// ConnectorConfig holds source-specific connection settings.
type ConnectorConfig struct {
	Provider     string
	APIKey       string
	Endpoint     string        // logging endpoint URL, or file path for replay
	PollInterval time.Duration // delay between polls; 0 selects the provider default
	Extra        map[string]string
}

// QueryParams defines filters for a one-shot query.
type QueryParams struct {
	After time.Time
	Limit int
}
