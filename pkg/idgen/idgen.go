// Package idgen 提供雪花算法 ID 生成器
package idgen

import (
	"sync"
	"time"
)

// Snowflake 雪花算法 ID 生成器
// ID 组成：timestamp(41 bits) + nodeID(10 bits) + sequence(12 bits)
type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	sequence  int64
	nodeID    int64
}

// New 创建雪花 ID 生成器
func New(nodeID int64) *Snowflake {
	return &Snowflake{
		nodeID: nodeID & 0x3FF, // 10 bits
	}
}

// Generate 生成单调递增的唯一 ID
func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & 0xFFF // 12 bits
		if s.sequence == 0 {
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	return (now << 22) | (s.nodeID << 12) | s.sequence
}

var defaultGen = New(1)

// GenID 使用默认生成器生成 ID
func GenID() int64 {
	return defaultGen.Generate()
}
