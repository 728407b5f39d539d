package nats

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/assistant-evaluator/internal/store"
)

// BucketPrefix prefixes the KeyValue bucket of every collection.
const BucketPrefix = "EVAL_"

// Compile-time interface verification.
var (
	_ store.KV     = (*KV)(nil)
	_ store.Pinger = (*KV)(nil)
)

// KV implements store.KV with one JetStream KeyValue bucket per collection.
// List orders entries by their last write.
type KV struct {
	client *Client

	mu      sync.Mutex
	buckets map[string]jetstream.KeyValue
}

// NewKV creates a KV backed by client's JetStream context.
func NewKV(client *Client) *KV {
	return &KV{
		client:  client,
		buckets: make(map[string]jetstream.KeyValue),
	}
}

// BucketName returns the bucket holding a collection.
func BucketName(collection string) string {
	return BucketPrefix + strings.ToUpper(collection)
}

// EncodeKey maps a record id onto the KeyValue key alphabet.
func EncodeKey(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DecodeKey reverses EncodeKey.
func DecodeKey(key string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("decode key %q: %w", key, err)
	}
	return string(b), nil
}

// bucket returns the bucket for collection, creating it on first use.
func (k *KV) bucket(ctx context.Context, collection string) (jetstream.KeyValue, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if b, ok := k.buckets[collection]; ok {
		return b, nil
	}

	name := BucketName(collection)
	js := k.client.JetStream()

	b, err := js.KeyValue(ctx, name)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		b, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      name,
			Description: "Evaluator collection " + collection,
			History:     1,
			Storage:     jetstream.FileStorage,
			Replicas:    1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", name, err)
	}

	k.buckets[collection] = b
	return b, nil
}

func (k *KV) Put(ctx context.Context, collection, id string, value []byte) error {
	b, err := k.bucket(ctx, collection)
	if err != nil {
		return err
	}
	if _, err := b.Put(ctx, EncodeKey(id), value); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (k *KV) Get(ctx context.Context, collection, id string) ([]byte, error) {
	b, err := k.bucket(ctx, collection)
	if err != nil {
		return nil, err
	}
	entry, err := b.Get(ctx, EncodeKey(id))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return entry.Value(), nil
}

func (k *KV) List(ctx context.Context, collection string) ([]store.Entry, error) {
	b, err := k.bucket(ctx, collection)
	if err != nil {
		return nil, err
	}

	keys, err := b.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	entries := make([]store.Entry, 0, len(keys))
	for _, key := range keys {
		id, err := DecodeKey(key)
		if err != nil {
			continue
		}
		entry, err := b.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
		}
		entries = append(entries, store.Entry{ID: id, Value: entry.Value()})
	}
	return entries, nil
}

func (k *KV) Delete(ctx context.Context, collection, id string) error {
	b, err := k.bucket(ctx, collection)
	if err != nil {
		return err
	}
	key := EncodeKey(id)
	if _, err := b.Get(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if err := b.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping reports the connection state.
func (k *KV) Ping(ctx context.Context) error {
	return k.client.Ping(ctx)
}
