//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cache provides an LRU cache for retrieval results keyed by
// a fingerprint of the query and retrieval parameters.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/grag-dev/grag-server/internal/corpus"
)

// DefaultCapacity bounds the cache when no size is configured.
const DefaultCapacity = 1000

// ResultCache caches ranked retrieval results. It is safe for
// concurrent use.
type ResultCache struct {
	lru *lru.Cache[string, []corpus.ScoredChunk]
}

// New creates a cache holding at most capacity entries. A
// non-positive capacity falls back to DefaultCapacity.
func New(capacity int) (*ResultCache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	inner, err := lru.New[string, []corpus.ScoredChunk](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}
	return &ResultCache{lru: inner}, nil
}

// Fingerprint derives the cache key for a retrieval request. The
// query text is hashed so arbitrarily long questions produce
// fixed-size keys.
func Fingerprint(query string, topK int, useRerank bool) string {
	sum := md5.Sum([]byte(query))
	return fmt.Sprintf("retrieve:%s:%d:%t", hex.EncodeToString(sum[:]), topK, useRerank)
}

// Get returns the cached results for key. The returned slice is a
// copy, so callers may not corrupt the cached entry.
func (c *ResultCache) Get(key string) ([]corpus.ScoredChunk, bool) {
	cached, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	out := make([]corpus.ScoredChunk, len(cached))
	copy(out, cached)
	return out, true
}

// Put stores results under key, evicting the least recently used
// entry when the cache is full.
func (c *ResultCache) Put(key string, results []corpus.ScoredChunk) {
	stored := make([]corpus.ScoredChunk, len(results))
	copy(stored, results)
	c.lru.Add(key, stored)
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	return c.lru.Len()
}
