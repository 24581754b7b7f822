package persist

import (
	"context"
	"errors"

	"github.com/cockroachdb/pebble"
)

// PebbleSink stores snapshots in an embedded pebble database on the device.
type PebbleSink struct {
	db *pebble.DB
}

func OpenPebble(path string) (*PebbleSink, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleSink{db: db}, nil
}

func (p *PebbleSink) Save(ctx context.Context, key string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return p.db.Set([]byte(key), data, pebble.Sync)
}

func (p *PebbleSink) Load(ctx context.Context, key string, v any) (bool, error) {
	data, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	defer closer.Close()

	// data is only valid until closer.Close
	return true, decode(data, v)
}

func (p *PebbleSink) Delete(ctx context.Context, key string) error {
	return p.db.Delete([]byte(key), pebble.Sync)
}

func (p *PebbleSink) Close() error {
	return p.db.Close()
}
