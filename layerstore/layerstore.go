// Package layerstore persists generated Navigator layers in Redis so they
// can be fetched again by ID or enumerated. Records expire after a
// configurable TTL; the store is a cache for sharing layer documents, not a
// system of record.
package layerstore

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/navlayer"
)

const (
	recordKeyPrefix = "attackkb:layer:"
	indexKey        = "attackkb:layers"

	// DefaultTTL keeps saved layers around for a day.
	DefaultTTL = 24 * time.Hour
)

// Options configures the Redis connection and record lifetime.
type Options struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// TLS configuration for secure connections.
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration

	// TTL is how long saved layers live before expiring.
	TTL time.Duration
}

// Record is the stored envelope around a layer document. The layer itself is
// kept as raw JSON in the Navigator wire format; the envelope carries the
// identity and provenance the wire format deliberately omits.
type Record struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Domain         string          `json:"domain"`
	DatasetVersion string          `json:"dataset_version"`
	SavedAt        time.Time       `json:"saved_at"`
	Layer          json.RawMessage `json:"layer"`
}

// Store saves and retrieves layer documents through Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to Redis and returns a layer store. The connection is verified
// with a ping before the store is handed out.
func New(opts Options, logger *slog.Logger) (*Store, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, ttl: opts.TTL, logger: logger}, nil
}

// Save stores a layer under its ID and registers it in the index set. The
// record expires after the store's TTL.
func (s *Store) Save(ctx context.Context, layer *navlayer.Layer, datasetVersion string) error {
	const op = "layerstore.Save"

	if layer == nil || layer.ID == "" {
		return attackkb.E(op, attackkb.KindInvalidLayer, map[string]any{
			"reason": "layer has no ID",
		})
	}

	doc, err := json.Marshal(layer)
	if err != nil {
		return fmt.Errorf("%s: marshal layer: %w", op, err)
	}
	record, err := json.Marshal(Record{
		ID:             layer.ID,
		Name:           layer.Name,
		Domain:         layer.Domain,
		DatasetVersion: datasetVersion,
		SavedAt:        time.Now().UTC(),
		Layer:          doc,
	})
	if err != nil {
		return fmt.Errorf("%s: marshal record: %w", op, err)
	}

	if err := s.client.Set(ctx, recordKeyPrefix+layer.ID, record, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.client.SAdd(ctx, indexKey, layer.ID).Err(); err != nil {
		return fmt.Errorf("%s: index layer: %w", op, err)
	}

	s.logger.Debug("layer saved", "layer_id", layer.ID, "name", layer.Name, "ttl", s.ttl)
	return nil
}

// Get fetches a saved layer by ID. Expired and unknown IDs both come back as
// a not-found error.
func (s *Store) Get(ctx context.Context, id string) (*navlayer.Layer, error) {
	const op = "layerstore.Get"

	raw, err := s.client.Get(ctx, recordKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, attackkb.E(op, attackkb.KindNotFound, map[string]any{
			"layer_id": id,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%s: decode record: %w", op, err)
	}
	var layer navlayer.Layer
	if err := json.Unmarshal(record.Layer, &layer); err != nil {
		return nil, fmt.Errorf("%s: decode layer: %w", op, err)
	}
	layer.ID = record.ID
	return &layer, nil
}

// List returns the envelopes of every live saved layer, newest first. IDs in
// the index whose records have expired are pruned as they are encountered.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	const op = "layerstore.List"

	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out []Record
	for _, id := range ids {
		raw, err := s.client.Get(ctx, recordKeyPrefix+id).Bytes()
		if errors.Is(err, redis.Nil) {
			if err := s.client.SRem(ctx, indexKey, id).Err(); err != nil {
				s.logger.Warn("failed to prune expired layer from index",
					"layer_id", id, "error", err)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		var record Record
		if err := json.Unmarshal(raw, &record); err != nil {
			s.logger.Warn("skipping undecodable layer record",
				"layer_id", id, "error", err)
			continue
		}
		record.Layer = nil
		out = append(out, record)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].SavedAt.After(out[j].SavedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes a saved layer. Deleting an unknown ID is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "layerstore.Delete"

	if err := s.client.Del(ctx, recordKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.client.SRem(ctx, indexKey, id).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
