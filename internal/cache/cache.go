package cache

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/seventv/slide-inverter/task"
	"golang.org/x/crypto/sha3"
)

// Input is one named blob that contributed to a batch.
type Input struct {
	Name string
	Data []byte
}

// Key is a SHA3-512 digest over the config and every input, in order.
func Key(cfg task.Config, inputs []Input) (string, error) {
	h := sha3.New512()

	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	write := func(p []byte) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		_, _ = h.Write(n[:])
		_, _ = h.Write(p)
	}

	write(b)
	for _, in := range inputs {
		write([]byte(in.Name))
		write(in.Data)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// LRU holds the most recently used batch results. It is safe for concurrent use.
type LRU struct {
	lru *lru.Cache[string, task.BatchResult]
}

// New returns a cache of size entries. A size below one disables caching.
func New(size int) *LRU {
	c := &LRU{}
	if size > 0 {
		c.lru, _ = lru.New[string, task.BatchResult](size)
	}

	return c
}

func (c *LRU) Get(key string) (task.BatchResult, bool) {
	if c.lru == nil {
		return task.BatchResult{}, false
	}

	return c.lru.Get(key)
}

func (c *LRU) Add(key string, value task.BatchResult) {
	if c.lru == nil {
		return
	}

	c.lru.Add(key, value)
}

func (c *LRU) Len() int {
	if c.lru == nil {
		return 0
	}

	return c.lru.Len()
}
