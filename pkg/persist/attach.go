package persist

import (
	"context"
	"sync"
	"time"

	"github.com/jestr-media/client/pkg/logging"
	"github.com/jestr-media/client/pkg/store"
	"go.uber.org/zap"
)

const saveTimeout = 5 * time.Second

// Attach writes snapshot(state) to sink under key after every committed
// change of s. Versions older than the last one written are skipped. The
// returned function detaches the sink again.
func Attach[S any](s *store.Store[S], sink Sink, key string, snapshot func(S) any, log *zap.Logger) func() {
	var mu sync.Mutex
	var saved uint64

	return s.Subscribe(func(state S, version uint64) {
		mu.Lock()
		defer mu.Unlock()
		if version <= saved {
			return
		}
		saved = version

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := sink.Save(ctx, key, snapshot(state)); err != nil {
			logging.Report(log, err, "Failed to persist snapshot", zap.String("key", key))
		}
	})
}
