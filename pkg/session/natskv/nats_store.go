package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
)

const DefaultBucket = "psm_sessions"

type (
	Option func(*natsStore)
	// natsStore keeps sessions in a JetStream KV bucket. The bucket TTL
	// removes sessions after their last update.
	natsStore struct {
		bucket string
		ttl    time.Duration
		now    func() time.Time
		kv     jetstream.KeyValue
		log    *log.Logger
	}
)

var _ session.Store = (*natsStore)(nil)

func WithBucket(bucket string) Option {
	return func(s *natsStore) {
		s.bucket = bucket
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *natsStore) {
		s.ttl = ttl
	}
}

// NewStore creates (or updates) the KV bucket used for sessions.
func NewStore(ctx context.Context, nc *nats.Conn, opts ...Option) (session.Store, error) {
	ret := &natsStore{
		bucket: DefaultBucket,
		ttl:    30 * time.Minute,
		now:    time.Now,
		log:    log.Default().Named("session.nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}
	ret.kv, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: ret.bucket,
		TTL:    ret.ttl,
	})
	if err != nil {
		return nil, err
	}
	ret.log.Debug("initialized session bucket",
		log.String("bucket", ret.bucket), log.Duration("ttl", ret.ttl))
	return ret, nil
}

func (s *natsStore) Get(ctx context.Context, id string) (*session.Session, error) {
	if err := session.ValidateID(id); err != nil {
		return nil, session.ErrSessionNotFound
	}
	entry, err := s.kv.Get(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var ret session.Session
	if err := json.Unmarshal(entry.Value(), &ret); err != nil {
		s.log.Warn("invalid session data", log.String("id", id), log.ErrorField(err))
		return nil, session.ErrSessionNotFound
	}
	return &ret, nil
}

func (s *natsStore) Put(ctx context.Context, sess *session.Session) error {
	if err := session.ValidateID(sess.ID); err != nil {
		return err
	}
	item := *sess
	item.Updated = s.now().UTC()
	data, err := json.Marshal(&item)
	if err != nil {
		return err
	}
	_, err = s.kv.Put(ctx, sess.ID, data)
	return err
}

func (s *natsStore) Delete(ctx context.Context, id string) error {
	err := s.kv.Delete(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}
