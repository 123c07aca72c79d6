package retrieval

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisIndex stores each collection as a redis hash of JSON documents and
// ranks them by cosine distance on query
type RedisIndex struct {
	client *redis.Client
	prefix string
}

var _ Index = (*RedisIndex)(nil)

// NewRedisIndex creates a RedisIndex whose keys start with prefix
func NewRedisIndex(client *redis.Client, prefix string) *RedisIndex {
	return &RedisIndex{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisIndex) Count(ctx context.Context, collection string) (int, error) {
	n, err := r.client.HLen(ctx, r.key(collection)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *RedisIndex) Query(
	ctx context.Context, collection string, embedding []float64, n int,
	filter Metadata,
) ([]Match, error) {
	vals, err := r.client.HVals(ctx, r.key(collection)).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(vals))
	for _, v := range vals {
		var d Document
		if err := json.Unmarshal([]byte(v), &d); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return nearest(docs, embedding, n, filter), nil
}

func (r *RedisIndex) Upsert(
	ctx context.Context, collection string, docs []Document,
) error {
	if len(docs) == 0 {
		return nil
	}

	values := make([]any, 0, len(docs)*2)
	for _, d := range docs {
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		values = append(values, d.ID, string(data))
	}
	return r.client.HSet(ctx, r.key(collection), values...).Err()
}

func (r *RedisIndex) key(collection string) string {
	return r.prefix + "collection:" + collection
}
