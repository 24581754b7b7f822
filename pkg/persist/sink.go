// Package persist stores state snapshots in a key-value backend. Stores use
// it purely as a sink: they write after every change and read once on
// start-up, they never reason about what the backend holds.
package persist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrClosed         = errors.New("sink closed")
	ErrUnknownBackend = errors.New("unknown persistence backend")
)

type Sink interface {
	// Save encodes v and stores it under key
	Save(ctx context.Context, key string, v any) error
	// Load decodes the value under key into v and reports whether it existed
	Load(ctx context.Context, key string, v any) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open picks a backend from the URI scheme:
//
//	memory://
//	pebble:///var/lib/jestr/state   (or a plain filesystem path)
//	redis://localhost:6379/0
//	mongodb://localhost:27017/jestr
func Open(ctx context.Context, uri string) (Sink, error) {
	if uri == "" || uri == "memory://" {
		return NewMemorySink(), nil
	}
	if !strings.Contains(uri, "://") {
		return openPebble(uri)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse persistence uri: %w", err)
	}
	switch u.Scheme {
	case "memory":
		return NewMemorySink(), nil
	case "pebble":
		return openPebble(u.Path)
	case "redis", "rediss":
		r, err := OpenRedis(ctx, uri)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "mongodb", "mongodb+srv":
		database := strings.Trim(u.Path, "/")
		if database == "" {
			database = "jestr"
		}
		m, err := OpenMongo(ctx, uri, database)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, u.Scheme)
	}
}

func openPebble(path string) (Sink, error) {
	p, err := OpenPebble(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
