package memory

import (
	"context"
	"errors"
	"time"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/utils/cache"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/utils/cache/ttlcache"
)

type (
	Option      func(*memoryStore)
	memoryStore struct {
		ttl   time.Duration
		now   func() time.Time
		cache cache.Cache[string, session.Session]
		log   *log.Logger
	}
)

var _ session.Store = (*memoryStore)(nil)

func WithTTL(ttl time.Duration) Option {
	return func(s *memoryStore) {
		s.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *memoryStore) {
		s.now = now
	}
}

// NewStore keeps sessions in process memory.
func NewStore(opts ...Option) session.Store {
	ret := &memoryStore{
		ttl: 30 * time.Minute,
		now: time.Now,
		log: log.Default().Named("session.memory"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.cache = ttlcache.New(
		ttlcache.WithExpiration[string, session.Session](ret.ttl),
		ttlcache.WithClock[string, session.Session](ret.now),
		ttlcache.WithLogger[string, session.Session](ret.log),
	)
	return ret
}

func (s *memoryStore) Get(ctx context.Context, id string) (*session.Session, error) {
	item, err := s.cache.Get(ctx, id)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	ret := *item
	return &ret, nil
}

func (s *memoryStore) Put(ctx context.Context, sess *session.Session) error {
	if err := session.ValidateID(sess.ID); err != nil {
		return err
	}
	item := *sess
	item.Updated = s.now()
	s.cache.Set(ctx, sess.ID, &item)
	s.log.Debug("stored session", log.String("id", sess.ID))
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.cache.Invalidate(ctx, id)
	return nil
}
