package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/yggauth/document"
)

var (
	// ErrNotFound is returned when no document is stored for a login.
	ErrNotFound = errors.New("account document not found")
	// ErrRedisUnavailable wraps every Redis transport or command failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrEmptyLogin is returned for blank login usernames.
	ErrEmptyLogin = errors.New("empty login username")
)

// Store is a Redis-backed account document store.
type Store struct {
	redis    redis.UniversalClient
	prefix   string
	ttl      time.Duration
	encoding document.Encoding
}

// NewStore creates a [Store]. prefix namespaces every key; ttl of zero keeps
// documents forever; enc selects the encoding of written documents.
func NewStore(rdb redis.UniversalClient, prefix string, ttl time.Duration, enc document.Encoding) *Store {
	if prefix == "" {
		prefix = "ygg"
	}
	return &Store{
		redis:    rdb,
		prefix:   prefix,
		ttl:      ttl,
		encoding: enc,
	}
}

func (s *Store) key(login string) string {
	return s.prefix + ":acct:" + login
}

func (s *Store) indexKey() string {
	return s.prefix + ":accounts"
}

func normalizeLogin(login string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return "", ErrEmptyLogin
	}
	return login, nil
}

// Save writes doc under doc.LoginUsername in the current layout.
func (s *Store) Save(ctx context.Context, doc *document.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	login, err := normalizeLogin(doc.LoginUsername)
	if err != nil {
		return err
	}

	data, err := document.Encode(doc, s.encoding)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(login), data, s.ttl)
		pipe.SAdd(ctx, s.indexKey(), login)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get loads the document stored for login. Older layouts are migrated in
// place.
func (s *Store) Get(ctx context.Context, login string) (*document.Document, error) {
	login, err := normalizeLogin(login)
	if err != nil {
		return nil, err
	}
	key := s.key(login)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	doc, err := document.Decode(data)
	if err != nil {
		return nil, err
	}

	if err := s.maybeMigrateDocument(ctx, key, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the document for login. Deleting a missing login is not an
// error.
func (s *Store) Delete(ctx context.Context, login string) error {
	login, err := normalizeLogin(login)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(login))
		pipe.SRem(ctx, s.indexKey(), login)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// List returns every stored login in lexical order. Index entries whose
// document has expired are pruned.
func (s *Store) List(ctx context.Context) ([]string, error) {
	logins, err := s.redis.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(logins) == 0 {
		return []string{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.IntCmd, len(logins))
	for i, login := range logins {
		cmds[i] = pipe.Exists(ctx, s.key(login))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	live := make([]string, 0, len(logins))
	var stale []any
	for i, cmd := range cmds {
		if cmd.Val() == 1 {
			live = append(live, logins[i])
		} else {
			stale = append(stale, logins[i])
		}
	}
	if len(stale) > 0 {
		if err := s.redis.SRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	sort.Strings(live)
	return live, nil
}

// TTL returns the remaining lifetime of the document for login. A document
// without expiry reports -1.
func (s *Store) TTL(ctx context.Context, login string) (time.Duration, error) {
	login, err := normalizeLogin(login)
	if err != nil {
		return 0, err
	}
	ttl, err := s.redis.PTTL(ctx, s.key(login)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl == -2 {
		return 0, ErrNotFound
	}
	return ttl, nil
}

func (s *Store) maybeMigrateDocument(ctx context.Context, key string, doc *document.Document) error {
	if doc == nil || doc.Version == document.CurrentVersion {
		return nil
	}

	encoded, err := document.Encode(doc, s.encoding)
	if err != nil {
		return err
	}

	// XX: never resurrect a key deleted since the read.
	err = s.redis.SetArgs(ctx, key, encoded, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	doc.Version = document.CurrentVersion
	return nil
}
