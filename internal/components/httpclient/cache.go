package httpclient

import (
	"bytes"
	"context"
	"cqscraper/internal/components/chrono"
	"encoding/gob"
	"errors"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cqscraper/httpclient")

var ErrCacheMiss = errors.New("cache miss")

type page struct {
	Contents  []byte
	ExpiresAt int64
}

// memoSize bounds the decoded pages kept in memory in front of badger.
const memoSize = 256

// Cache keeps response bodies in badger, keyed by their normalized url. Recently used pages
// are also kept decoded in memory.
type Cache struct {
	db       *badger.DB
	memo     *expirable.LRU[string, page]
	lifetime time.Duration
	clock    chrono.API
}

// OpenCache opens the cache at dir, an empty dir keeps it in memory.
func OpenCache(dir string, lifetime time.Duration, clock chrono.API) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return NewCache(db, lifetime, clock), nil
}

func NewCache(db *badger.DB, lifetime time.Duration, clock chrono.API) *Cache {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &Cache{
		db:       db,
		memo:     expirable.NewLRU[string, page](memoSize, nil, lifetime),
		lifetime: lifetime,
		clock:    clock,
	}
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(rawUrl string) (string, error) {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return "", err
	}
	return purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	), nil
}

func (c *Cache) Get(ctx context.Context, rawUrl string) ([]byte, error) {
	_, span := tracer.Start(ctx, "cache.get")
	defer span.End()

	key, err := cacheKey(rawUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create cache key")
		return nil, err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	memoized, ok := c.memo.Get(key)
	if ok && c.clock.Now().Unix() < memoized.ExpiresAt {
		span.SetAttributes(attribute.Bool("memo", true))
		return memoized.Contents, nil
	}
	if ok {
		c.memo.Remove(key)
	}

	var serialized []byte
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		serialized, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var cached page
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if c.clock.Now().Unix() >= cached.ExpiresAt {
		err = c.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
		if err != nil {
			span.RecordError(err)
		}
		return nil, ErrCacheMiss
	}

	c.memo.Add(key, cached)
	span.SetAttributes(attribute.Int("contentlength", len(cached.Contents)))
	return cached.Contents, nil
}

func (c *Cache) Set(ctx context.Context, rawUrl string, contents []byte) error {
	_, span := tracer.Start(ctx, "cache.set")
	defer span.End()

	key, err := cacheKey(rawUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}

	cached := page{
		Contents:  contents,
		ExpiresAt: c.clock.Now().Add(c.lifetime).Unix(),
	}
	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(cached)
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), serialized.Bytes())
	})
	if err != nil {
		return err
	}
	c.memo.Add(key, cached)
	return nil
}
