// takeoff/cache.go
// Copyright(c) 2025 takeoff contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package takeoff

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultRunCacheSize = 512

type runKey struct {
	failureSpeed float64 // Never for none
	aborted      bool
	alphaRed     float64
}

func makeRunKey(failureSpeed *float64, aborted bool, alphaRed float64) runKey {
	k := runKey{failureSpeed: Never, aborted: aborted, alphaRed: alphaRed}
	if failureSpeed != nil {
		k.failureSpeed = *failureSpeed
	}
	return k
}

// runCache memoizes completed runs; the alpha search and the balanced
// field solver repeat many of them. A nil *runCache caches nothing.
type runCache struct {
	c *lru.Cache[runKey, *RunResult]
}

func newRunCache(size int) *runCache {
	if size < 0 {
		return nil
	}
	if size == 0 {
		size = DefaultRunCacheSize
	}
	c, err := lru.New[runKey, *RunResult](size)
	if err != nil {
		return nil
	}
	return &runCache{c: c}
}

func (rc *runCache) get(k runKey) (*RunResult, bool) {
	if rc == nil {
		return nil, false
	}
	return rc.c.Get(k)
}

func (rc *runCache) add(k runKey, r *RunResult) {
	if rc != nil {
		rc.c.Add(k, r)
	}
}

func (rc *runCache) Len() int {
	if rc == nil {
		return 0
	}
	return rc.c.Len()
}
