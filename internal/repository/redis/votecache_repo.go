package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	VoteSetTTL       = 24 * time.Hour
	VoteCntTTL       = 24 * time.Hour
	LockTTL          = 300 * time.Millisecond
	VoteSetKeyPrefix = "vote:set" // wallets that upvoted a target
	VoteCntKeyPrefix = "vote:cnt" // cached upvote count per target
	LockKeyPrefix    = "lock:vote"
)

// Target kinds for cache keys.
const (
	KindPost    = "post"
	KindComment = "comment"
)

// VoteCacheRepository caches upvote sets and counts per target. Write paths
// update it after the store commit; misses fall back to the store.
type VoteCacheRepository struct {
	voteSetTTL time.Duration
	voteCntTTL time.Duration
}

type DistLock struct {
	RDB *redis.Client
}

func NewVoteCacheRepository() *VoteCacheRepository {
	return &VoteCacheRepository{
		voteSetTTL: VoteSetTTL,
		voteCntTTL: VoteCntTTL,
	}
}

func (r *VoteCacheRepository) voteSetKey(kind string, targetID uint64) string {
	return fmt.Sprintf("%s:%s:%d", VoteSetKeyPrefix, kind, targetID)
}
func (r *VoteCacheRepository) voteCntKey(kind string, targetID uint64) string {
	return fmt.Sprintf("%s:%s:%d", VoteCntKeyPrefix, kind, targetID)
}

func (r *VoteCacheRepository) AddVote(ctx context.Context, kind string, targetID uint64, wallet string) error {
	k := r.voteSetKey(kind, targetID)
	if err := Client.SAdd(ctx, k, wallet).Err(); err != nil {
		return err
	}
	_ = Client.Expire(ctx, k, r.voteSetTTL).Err()

	ck := r.voteCntKey(kind, targetID)
	if err := Client.Incr(ctx, ck).Err(); err != nil {
		return err
	}
	_ = Client.Expire(ctx, ck, r.voteCntTTL).Err()
	return nil
}

func (r *VoteCacheRepository) RemoveVote(ctx context.Context, kind string, targetID uint64, wallet string) error {
	k := r.voteSetKey(kind, targetID)
	if err := Client.SRem(ctx, k, wallet).Err(); err != nil {
		return err
	}
	ck := r.voteCntKey(kind, targetID)
	// WATCH keeps the cached count from going negative under concurrency.
	if err := Client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, ck).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if val <= 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Decr(ctx, ck)
			return nil
		})
		return err
	}, ck); err != nil {
		return err
	}
	return nil
}

func (r *VoteCacheRepository) HasVotedCached(ctx context.Context, kind string, targetID uint64, wallet string) (bool, bool, error) {
	k := r.voteSetKey(kind, targetID)
	exists, err := Client.Exists(ctx, k).Result()
	if err != nil {
		return false, false, err
	}
	if exists == 0 {
		return false, false, nil
	}
	b, err := Client.SIsMember(ctx, k, wallet).Result()
	return b, true, err
}

func (r *VoteCacheRepository) GetCountCached(ctx context.Context, kind string, targetID uint64) (int64, bool, error) {
	ck := r.voteCntKey(kind, targetID)
	val, err := Client.Get(ctx, ck).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	return val, true, err
}

func (r *VoteCacheRepository) SetCount(ctx context.Context, kind string, targetID uint64, cnt int64) error {
	ck := r.voteCntKey(kind, targetID)
	return Client.Set(ctx, ck, cnt, r.voteCntTTL).Err()
}

// WarmHasVoted fills the set lazily: only when it already exists, so one-off
// targets don't grow the cache without bound.
func (r *VoteCacheRepository) WarmHasVoted(ctx context.Context, kind string, targetID uint64, wallet string, voted bool) {
	k := r.voteSetKey(kind, targetID)
	if ok, _ := Client.Exists(ctx, k).Result(); ok > 0 {
		if voted {
			_ = Client.SAdd(ctx, k, wallet).Err()
		} else {
			_ = Client.SRem(ctx, k, wallet).Err()
		}
		_ = Client.Expire(ctx, k, r.voteSetTTL).Err()
	}
}

// DeleteCount drops the cached count, with an optional delayed second
// delete to shrink the stale-refill window.
func (r *VoteCacheRepository) DeleteCount(ctx context.Context, kind string, targetID uint64, delay ...time.Duration) error {
	key := r.voteCntKey(kind, targetID)
	if err := Client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(delay) > 0 && delay[0] > 0 {
		d := delay[0]
		go func() {
			t := time.NewTimer(d)
			defer t.Stop()
			<-t.C
			_ = Client.Del(context.Background(), key).Err()
		}()
	}
	return nil
}

func (l *DistLock) Acquire(ctx context.Context, kind string, targetID uint64, token string) (bool, error) {
	key := fmt.Sprintf("%s:%s:%d", LockKeyPrefix, kind, targetID)
	return l.RDB.SetNX(ctx, key, token, LockTTL).Result()
}

// Release compares the token in lua so only the holder can delete.
func (l *DistLock) Release(ctx context.Context, kind string, targetID uint64, token string) error {
	key := fmt.Sprintf("%s:%s:%d", LockKeyPrefix, kind, targetID)
	_, err := redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`).Run(ctx, l.RDB, []string{key}, token).Result()
	return err
}
