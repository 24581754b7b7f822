package ids

import (
	"strconv"
	"sync"
	"time"
)

// Snowflake format:
// Timestamp (41-bits)
// Node ID (11-bits)
// Increment (11-bits)

const JestrEpoch int64 = 1704067200000 // 2024-01-01 12am GMT

const (
	TimestampBits = 41
	TimestampMask = (1 << TimestampBits) - 1

	NodeIdBits = 11
	NodeIdMask = (1 << NodeIdBits) - 1

	IncrementBits = 11
	IncrementMask = (1 << IncrementBits) - 1
)

// Snowflake hands out time-ordered numeric ids: server-side ids in the dev
// server and notification ids on the device.
type Snowflake struct {
	mu     sync.Mutex
	nodeId int64
	lastTs int64
	incr   int64
	now    func() time.Time
}

func NewSnowflake(nodeId int) *Snowflake {
	return &Snowflake{
		nodeId: int64(nodeId) & NodeIdMask,
		now:    time.Now,
	}
}

func (s *Snowflake) Gen() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Get timestamp
	ts := s.now().UnixMilli()
	if ts < s.lastTs {
		ts = s.lastTs
	}

	// Get increment
	if ts != s.lastTs {
		s.lastTs = ts
		s.incr = 0
	} else if s.incr >= IncrementMask {
		// Borrow the next millisecond instead of spinning
		ts++
		s.lastTs = ts
		s.incr = 0
	} else {
		s.incr++
	}

	// Construct ID
	id := (ts - JestrEpoch) << (NodeIdBits + IncrementBits)
	id |= s.nodeId << IncrementBits
	id |= s.incr

	return id
}

// GenString returns Gen formatted in base 10, the form used on the wire.
func (s *Snowflake) GenString() string {
	return strconv.FormatInt(s.Gen(), 10)
}

type Parts struct {
	Timestamp int64
	NodeId    int64
	Increment int64
}

func Extract(id int64) Parts {
	return Parts{
		Timestamp: ((id >> (NodeIdBits + IncrementBits)) & TimestampMask) + JestrEpoch,
		NodeId:    (id >> IncrementBits) & NodeIdMask,
		Increment: id & IncrementMask,
	}
}
