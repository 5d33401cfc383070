package data

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/encoding"
	"github.com/go-kratos/kratos/v2/encoding/json"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/orphancare/charity-service/internal/biz"
	"github.com/orphancare/charity-service/internal/conf"
)

const defaultCacheTTL = 5 * time.Minute

type sponsorshipCache struct {
	rdb   *redis.Client
	ttl   time.Duration
	codec encoding.Codec
	log   *log.Helper
}

// NewSponsorshipCache creates a redis backed read cache for sponsorships.
func NewSponsorshipCache(d *Data, c *conf.Data, logger log.Logger) biz.SponsorshipCache {
	ttl := defaultCacheTTL
	if c.Redis != nil && c.Redis.CacheTTL.AsDuration() > 0 {
		ttl = c.Redis.CacheTTL.AsDuration()
	}
	return newSponsorshipCache(d.Redis(), ttl, logger)
}

func newSponsorshipCache(rdb *redis.Client, ttl time.Duration, logger log.Logger) *sponsorshipCache {
	return &sponsorshipCache{
		rdb:   rdb,
		ttl:   ttl,
		codec: encoding.GetCodec(json.Name),
		log:   log.NewHelper(log.With(logger, "module", "data/cache")),
	}
}

func sponsorshipKey(id int64) string {
	return fmt.Sprintf("sponsorship:%d", id)
}

func sponsorshipGenKey(id int64) string {
	return fmt.Sprintf("sponsorship:%d:gen", id)
}

// setIfGen writes KEYS[1] only while KEYS[2] still holds the generation the
// caller read. A missing generation key counts as 0.
var setIfGen = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (c *sponsorshipCache) Get(ctx context.Context, id int64) (*biz.Sponsorship, int64, error) {
	vals, err := c.rdb.MGet(ctx, sponsorshipGenKey(id), sponsorshipKey(id)).Result()
	if err != nil {
		return nil, 0, err
	}

	var gen int64
	if raw, ok := vals[0].(string); ok {
		if gen, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, 0, fmt.Errorf("parse %s: %w", sponsorshipGenKey(id), err)
		}
	}
	raw, ok := vals[1].(string)
	if !ok {
		return nil, gen, nil
	}

	var s biz.Sponsorship
	if err := c.codec.Unmarshal([]byte(raw), &s); err != nil {
		c.log.WithContext(ctx).Warnf("drop undecodable cache entry %s: %v", sponsorshipKey(id), err)
		if err := c.rdb.Del(ctx, sponsorshipKey(id)).Err(); err != nil {
			return nil, 0, err
		}
		return nil, gen, nil
	}
	return &s, gen, nil
}

func (c *sponsorshipCache) Set(ctx context.Context, s *biz.Sponsorship, gen int64) error {
	b, err := c.codec.Marshal(s)
	if err != nil {
		return err
	}
	stored, err := setIfGen.Run(ctx, c.rdb,
		[]string{sponsorshipKey(s.ID), sponsorshipGenKey(s.ID)},
		strconv.FormatInt(gen, 10), b, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return err
	}
	if stored == 0 {
		c.log.WithContext(ctx).Debugf("skip stale cache write for sponsorship %d", s.ID)
	}
	return nil
}

// Evict drops the entry and bumps its generation. The generation key lives
// twice as long as an entry so it outlasts any read still in flight.
func (c *sponsorshipCache) Evict(ctx context.Context, id int64) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, sponsorshipGenKey(id))
		pipe.PExpire(ctx, sponsorshipGenKey(id), 2*c.ttl)
		pipe.Del(ctx, sponsorshipKey(id))
		return nil
	})
	return err
}
