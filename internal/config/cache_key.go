package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CatalogTableKey returns the cache key holding the courses of one catalog table
func (r *CacheKeyStruct) CatalogTableKey(tableID string) string {
	return fmt.Sprintf("catalog:table:%s", tableID)
}

// CatalogTablePattern matches every cached catalog table
func (r *CacheKeyStruct) CatalogTablePattern() string {
	return "catalog:table:*"
}

var CacheKey = NewCacheKeyStruct()
