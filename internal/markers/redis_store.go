package markers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultKeyPrefix namespaces marker keys.
const DefaultKeyPrefix = "timecode:markers:"

// addScript stores a marker and indexes it in the timeline's sorted set,
// refusing the write when the timeline is at capacity. Index entries whose
// marker has expired are pruned before the capacity check. Returns 1 on
// success, 0 when the ID exists and -1 when the timeline is full.
var addScript = redis.NewScript(`
	local key = KEYS[1]
	local index = KEYS[2]
	local data = ARGV[1]
	local ttl = tonumber(ARGV[2])
	local id = ARGV[3]
	local score = ARGV[4]
	local max = tonumber(ARGV[5])
	local prefix = ARGV[6]
	if max > 0 and redis.call('ZCARD', index) >= max then
		for _, member in ipairs(redis.call('ZRANGE', index, 0, -1)) do
			if redis.call('EXISTS', prefix .. member) == 0 then
				redis.call('ZREM', index, member)
			end
		end
		if redis.call('ZCARD', index) >= max then
			return -1
		end
	end
	local ok
	if ttl > 0 then
		ok = redis.call('SET', key, data, 'PX', ttl, 'NX')
	else
		ok = redis.call('SET', key, data, 'NX')
	end
	if not ok then
		return 0
	end
	redis.call('ZADD', index, score, id)
	if ttl > 0 then
		redis.call('PEXPIRE', index, ttl)
	end
	return 1
`)

// listScript returns the stored markers of a timeline in index order and
// drops index entries whose marker has expired.
var listScript = redis.NewScript(`
	local index = KEYS[1]
	local prefix = ARGV[1]
	local ids = redis.call('ZRANGE', index, 0, -1)
	local result = {}
	for _, id in ipairs(ids) do
		local data = redis.call('GET', prefix .. id)
		if data then
			table.insert(result, data)
		else
			redis.call('ZREM', index, id)
		end
	end
	return result
`)

// deleteScript removes a marker and its index entry. Returns the number of
// marker keys deleted.
var deleteScript = redis.NewScript(`
	local deleted = redis.call('DEL', KEYS[1])
	redis.call('ZREM', KEYS[2], ARGV[1])
	return deleted
`)

// RedisStore implements Store on Redis. Each marker is a JSON value under
// prefix+timeline+":"+id; prefix+timeline is a sorted set of IDs scored by
// frame number.
type RedisStore struct {
	client redis.UniversalClient
	logger *logrus.Logger
	prefix string
	ttl    time.Duration
	max    int
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	KeyPrefix      string
	TTL            time.Duration
	MaxPerTimeline int
}

// NewRedisStore creates a Redis-backed marker store. A zero TTL keeps
// markers until deleted.
func NewRedisStore(client redis.UniversalClient, logger *logrus.Logger, opts RedisOptions) *RedisStore {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		logger: logger,
		prefix: prefix,
		ttl:    opts.TTL,
		max:    opts.MaxPerTimeline,
	}
}

func (r *RedisStore) markerPrefix(timeline string) string {
	return r.prefix + timeline + ":"
}

func (r *RedisStore) indexKey(timeline string) string {
	return r.prefix + timeline
}

func (r *RedisStore) Add(ctx context.Context, m *Marker) error {
	if err := m.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal marker: %w", err)
	}

	res, err := addScript.Run(ctx, r.client,
		[]string{r.markerPrefix(m.Timeline) + m.ID, r.indexKey(m.Timeline)},
		data, r.ttl.Milliseconds(), m.ID, m.Timecode.FrameNumber(), r.max,
		r.markerPrefix(m.Timeline)).Int()
	if err != nil {
		return fmt.Errorf("failed to add marker: %w", err)
	}

	switch res {
	case 0:
		return fmt.Errorf("%w: %s", ErrMarkerExists, m.ID)
	case -1:
		return fmt.Errorf("%w: %s holds %d markers", ErrTimelineFull, m.Timeline, r.max)
	}

	r.logger.WithFields(logrus.Fields{
		"timeline":  m.Timeline,
		"marker_id": m.ID,
		"timecode":  m.Timecode.String(),
	}).Debug("Marker added")
	return nil
}

func (r *RedisStore) Get(ctx context.Context, timeline, id string) (*Marker, error) {
	data, err := r.client.Get(ctx, r.markerPrefix(timeline)+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s/%s", ErrMarkerNotFound, timeline, id)
		}
		return nil, fmt.Errorf("failed to get marker: %w", err)
	}

	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal marker: %w", err)
	}
	return &m, nil
}

func (r *RedisStore) List(ctx context.Context, timeline string) ([]*Marker, error) {
	values, err := listScript.Run(ctx, r.client,
		[]string{r.indexKey(timeline)}, r.markerPrefix(timeline)).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to list markers: %w", err)
	}

	out := make([]*Marker, 0, len(values))
	for _, data := range values {
		var m Marker
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			r.logger.WithError(err).WithField("timeline", timeline).Warn("Skipping undecodable marker")
			continue
		}
		out = append(out, &m)
	}

	// The index orders by frame only; markers at different rates need the
	// full timecode ordering.
	Sort(out)
	return out, nil
}

func (r *RedisStore) Delete(ctx context.Context, timeline, id string) error {
	deleted, err := deleteScript.Run(ctx, r.client,
		[]string{r.markerPrefix(timeline) + id, r.indexKey(timeline)}, id).Int()
	if err != nil {
		return fmt.Errorf("failed to delete marker: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s/%s", ErrMarkerNotFound, timeline, id)
	}

	r.logger.WithFields(logrus.Fields{
		"timeline":  timeline,
		"marker_id": id,
	}).Debug("Marker deleted")
	return nil
}

// Close closes the Redis client connection.
func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
