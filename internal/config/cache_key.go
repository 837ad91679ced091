package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for one issued token of a user.
func (r *CacheKeyStruct) UserSessionKey(userID int, jti string) string {
	return fmt.Sprintf("session:%d:%s", userID, jti)
}

// UserSessionPattern matches every live token of a user.
func (r *CacheKeyStruct) UserSessionPattern(userID int) string {
	return fmt.Sprintf("session:%d:*", userID)
}

// EnrollmentChannel is the Redis PubSub channel carrying enrollment events.
func (r *CacheKeyStruct) EnrollmentChannel() string {
	return "enrollments:events"
}

var CacheKey = NewCacheKeyStruct()
