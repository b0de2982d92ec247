package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/ztrue/tracerr"

	"github.com/jdziat/backgrounder/pkg/core"
	"github.com/jdziat/backgrounder/pkg/jobctx"
)

// NewRedisClient connects to a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisConfig is shared by RedisBackend and RedisServer.
type RedisConfig struct {
	Namespace    string
	Queues       []string
	Concurrency  int
	FetchTimeout time.Duration
	PollInterval time.Duration
	Logger       logrus.FieldLogger
}

// RedisOption configures a RedisBackend or RedisServer.
type RedisOption func(*RedisConfig)

// Namespace prefixes every key with ns and a colon.
func Namespace(ns string) RedisOption {
	return func(c *RedisConfig) { c.Namespace = ns }
}

// RedisQueues sets the queues a RedisServer fetches from, in priority order.
func RedisQueues(names ...string) RedisOption {
	return func(c *RedisConfig) { c.Queues = append([]string(nil), names...) }
}

// RedisConcurrency sets the number of fetch loops of a RedisServer.
func RedisConcurrency(n int) RedisOption {
	return func(c *RedisConfig) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

// RedisPollInterval sets how often due retries are moved back onto queues.
func RedisPollInterval(d time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if d > 0 {
			c.PollInterval = d
		}
	}
}

// RedisLogger sets the logger.
func RedisLogger(l logrus.FieldLogger) RedisOption {
	return func(c *RedisConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

func newRedisConfig(opts []RedisOption) RedisConfig {
	c := RedisConfig{
		Queues:       []string{"default"},
		Concurrency:  5,
		FetchTimeout: 2 * time.Second,
		PollInterval: 5 * time.Second,
		Logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c RedisConfig) key(parts ...string) string {
	k := strings.Join(parts, ":")
	if c.Namespace == "" {
		return k
	}
	return c.Namespace + ":" + k
}

func (c RedisConfig) queueKey(queue string) string {
	return c.key("queue", queue)
}

// RedisBackend submits jobs to Redis in the layout Sidekiq servers read.
type RedisBackend struct {
	client redis.UniversalClient
	config RedisConfig
}

// NewRedisBackend creates a backend on client.
func NewRedisBackend(client redis.UniversalClient, opts ...RedisOption) *RedisBackend {
	return &RedisBackend{client: client, config: newRedisConfig(opts)}
}

// Submit implements core.Backend. It registers the queue and pushes the
// payload in one transaction and returns the payload's jid.
func (b *RedisBackend) Submit(ctx context.Context, opts core.QueueOptions, d core.Descriptor) (string, error) {
	p := NewPayload(opts, d, time.Now())
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}
	if err := push(ctx, b.client, b.config, p.Queue, raw); err != nil {
		return "", err
	}
	return p.JID, nil
}

func push(ctx context.Context, client redis.UniversalClient, config RedisConfig, queue string, raw []byte) error {
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, config.key("queues"), queue)
		pipe.LPush(ctx, config.queueKey(queue), raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push job: %w", err)
	}
	return nil
}

// RedisServer fetches jobs pushed by a RedisBackend (or any Sidekiq
// client) and performs them.
type RedisServer struct {
	client    redis.UniversalClient
	performer core.Performer
	config    RedisConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRedisServer creates a server running fetched jobs through performer.
func NewRedisServer(client redis.UniversalClient, performer core.Performer, opts ...RedisOption) *RedisServer {
	return &RedisServer{
		client:    client,
		performer: performer,
		config:    newRedisConfig(opts),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start fetches and performs jobs until ctx is done.
func (s *RedisServer) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < s.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.fetchLoop(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pollLoop(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (s *RedisServer) fetchLoop(ctx context.Context) {
	keys := make([]string, len(s.config.Queues))
	for i, q := range s.config.Queues {
		keys[i] = s.config.queueKey(q)
	}

	for ctx.Err() == nil {
		res, err := s.client.BRPop(ctx, s.config.FetchTimeout, keys...).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			s.config.Logger.WithError(err).Error("failed to fetch job")
			sleep(ctx, time.Second)
			continue
		}
		// res is [key, payload]
		if err := s.Process(ctx, []byte(res[1])); err != nil {
			s.config.Logger.WithError(err).Error("failed to process job")
		}
	}
}

// Process performs one raw payload and files it in the retry or dead set
// when it fails. The returned error concerns Redis or the payload, not the
// job's own failure.
func (s *RedisServer) Process(ctx context.Context, raw []byte) error {
	p, err := DecodePayload(raw)
	if err != nil {
		return err
	}

	log := s.config.Logger.WithFields(logrus.Fields{"jid": p.JID, "queue": p.Queue})
	attempt := 1
	if p.RetryCount != nil {
		attempt = *p.RetryCount + 2
	}
	cause := s.perform(jobctx.With(ctx, jobctx.Info{ID: p.JID, Queue: p.Queue, Attempt: attempt}), p.Args)
	if cause == nil {
		log.Debug("job done")
		return nil
	}

	now := time.Now()
	dest, at := RecordFailure(&p, cause, now, s.jitter)
	updated, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	switch dest {
	case RetrySet:
		log.WithError(cause).Warnf("job failed, retry %d at %s", *p.RetryCount+1, at.Format(time.RFC3339))
		return s.client.ZAdd(ctx, s.config.key("retry"), &redis.Z{Score: epoch(at), Member: updated}).Err()
	case DeadSet:
		log.WithError(cause).Error("job retries exhausted, moving to dead set")
		return s.client.ZAdd(ctx, s.config.key("dead"), &redis.Z{Score: epoch(now), Member: updated}).Err()
	default:
		log.WithError(cause).Error("job failed, retries disabled")
		return nil
	}
}

func (s *RedisServer) perform(ctx context.Context, d core.Descriptor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = tracerr.Wrap(fmt.Errorf("panic: %v", r))
		}
	}()
	return s.performer.Perform(ctx, d)
}

func (s *RedisServer) jitter(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

func (s *RedisServer) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.EnqueueDueRetries(ctx, time.Now())
			if err != nil && ctx.Err() == nil {
				s.config.Logger.WithError(err).Warn("failed to enqueue due retries")
			}
			if n > 0 {
				s.config.Logger.Debugf("requeued %d retries", n)
			}
		}
	}
}

// EnqueueDueRetries moves retries scheduled at or before now back onto
// their queues and returns how many it moved.
func (s *RedisServer) EnqueueDueRetries(ctx context.Context, now time.Time) (int, error) {
	retryKey := s.config.key("retry")
	due, err := s.client.ZRangeByScore(ctx, retryKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatFloat(epoch(now), 'f', -1, 64),
		Count: 100,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, raw := range due {
		// Another server may have claimed it.
		removed, err := s.client.ZRem(ctx, retryKey, raw).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		p, err := DecodePayload([]byte(raw))
		if err != nil {
			s.config.Logger.WithError(err).Error("dropping undecodable retry")
			continue
		}
		if err := push(ctx, s.client, s.config, p.Queue, []byte(raw)); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
