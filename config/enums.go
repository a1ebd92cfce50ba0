package config

import (
	"rstyle/cache"
)

// StoreKind selects where stylesheet sources are kept.
type StoreKind string

const (
	StoreFS     StoreKind = "fs"
	StoreSQLite StoreKind = "sqlite"
)

// EvictionPolicy selects how result caches are trimmed.
type EvictionPolicy string

const (
	EvictionLRU       EvictionPolicy = "lru"
	EvictionArbitrary EvictionPolicy = "arbitrary"
)

func (e EvictionPolicy) Policy() cache.Policy {
	switch e {
	case EvictionArbitrary:
		return cache.Arbitrary{}
	default:
		return cache.LRU{}
	}
}
