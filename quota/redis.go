package quota

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

const (
	quotaRecordVersion1 = 1

	defaultRedisPrefix = "tgq"
)

// RedisStore defines a public type used by the token engine APIs.
//
// Records are stored as compact binary blobs with the owning token's expiry as
// the key TTL, so Redis evicts exhausted state without a sweeper.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	clock  clockwork.Clock
}

// NewRedisStore describes the newredisstore operation and its observable behavior.
//
// Key TTLs and expiry short-circuits are computed from clock, so a store
// owned by an engine must share the engine's time source. A nil clock falls
// back to the real one; note that Redis itself always evicts keys on its own
// wall clock.
func NewRedisStore(client redis.UniversalClient, prefix string, clock clockwork.Clock) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		clock:  clock,
	}
}

func (s *RedisStore) key(jti string) string {
	return s.prefix + ":" + jti
}

// Register describes the register operation and its observable behavior.
func (s *RedisStore) Register(ctx context.Context, jti string, maxCount uint32, expiresAt int64) error {
	ttl := time.Unix(expiresAt, 0).Sub(s.clock.Now())
	if ttl <= 0 {
		// Token already expired at registration time; nothing to track.
		return nil
	}

	encoded, err := encodeQuotaRecord(&Record{
		MaxCount:  maxCount,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(jti), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Get describes the get operation and its observable behavior.
func (s *RedisStore) Get(ctx context.Context, jti string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(jti)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	record, err := decodeQuotaRecord(data)
	if err != nil {
		return nil, err
	}
	if s.clock.Now().Unix() > record.ExpiresAt {
		_, _ = s.redis.Del(ctx, s.key(jti)).Result()
		return nil, ErrNotFound
	}
	return record, nil
}

// RecordDownload describes the recorddownload operation and its observable behavior.
//
// The counter is incremented under WATCH/MULTI with a bounded optimistic retry
// loop, so two instances racing on the same jti can never both consume the last
// remaining download.
func (s *RedisStore) RecordDownload(ctx context.Context, jti string) (bool, error) {
	const maxRetries = 4
	key := s.key(jti)

	for i := 0; i < maxRetries; i++ {
		var accepted bool

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeQuotaRecord(data)
			if err != nil {
				return err
			}

			if s.clock.Now().Unix() > record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrNotFound
			}

			if record.Count >= record.MaxCount {
				accepted = false
				return nil
			}

			record.Count++
			ttl := time.Unix(record.ExpiresAt, 0).Sub(s.clock.Now())
			if ttl <= 0 {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrNotFound
			}

			updated, err := encodeQuotaRecord(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			if err != nil {
				return err
			}

			accepted = true
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil), errors.Is(err, ErrNotFound):
				// No quota registered (or already evicted): unlimited.
				return true, nil
			default:
				return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
			}
		}
		return accepted, nil
	}

	return false, fmt.Errorf("%w: transaction retries exhausted", ErrBackendUnavailable)
}

// Sweep describes the sweep operation and its observable behavior.
//
// Redis evicts records through key TTLs, so Sweep has nothing to do.
func (s *RedisStore) Sweep(context.Context, int64) (int, error) {
	return 0, nil
}

func encodeQuotaRecord(record *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(quotaRecordVersion1)
	if err := binary.Write(&buf, binary.BigEndian, record.Count); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.MaxCount); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeQuotaRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != quotaRecordVersion1 {
		return nil, errors.New("invalid quota record version")
	}

	record := &Record{}
	if err := binary.Read(reader, binary.BigEndian, &record.Count); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.MaxCount); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	return record, nil
}
