package idgen

import (
	"fmt"
	"sync"
	"time"
)

// ============================================================================
// Snowflake ids
// ============================================================================
//
//   0 | 41 bit millisecond timestamp | 10 bit worker | 12 bit sequence
//
// Document and record numbers are a prefix, the formatted time and the low
// digits of an id, e.g. SAL20240115143052_00012345.
//
// ============================================================================

const (
	epoch          = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

const (
	PrefixSale        = "SAL"
	PrefixPurchase    = "PUR"
	PrefixExpense     = "EXP"
	PrefixLoan        = "LON"
	PrefixTransaction = "TXN"
)

type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
}

func NewSnowflake(workerID int64) (*Snowflake, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, fmt.Errorf("workerID must be between 0 and %d", maxWorkerID)
	}
	return &Snowflake{workerID: workerID}, nil
}

var (
	defaultGenerator = &Snowflake{workerID: 1}
	defaultMu        sync.Mutex
)

// Init replaces the process wide generator.
func Init(workerID int64) error {
	s, err := NewSnowflake(workerID)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultGenerator = s
	defaultMu.Unlock()
	return nil
}

func NextID() int64 {
	defaultMu.Lock()
	g := defaultGenerator
	defaultMu.Unlock()
	return g.Generate()
}

func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < s.timestamp {
		// clock moved backwards; stay on the last timestamp
		now = s.timestamp
	}

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	return ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence
}

// DocumentNo formats a number with the given prefix.
func DocumentNo(prefix string) string {
	id := NextID()
	return fmt.Sprintf("%s%s_%d", prefix, time.Now().Format("20060102150405"), id)
}

func TransactionNo() string {
	return DocumentNo(PrefixTransaction)
}
