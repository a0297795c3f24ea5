package cache

import "strings"

const (
	GlobalKeyPrefix = "exambank"

	classificationObjectType = "classification"
)

// GenerateCacheKey builds a namespaced cache key for an object type and
// identifier. If paramsKey are provided, they are joined by "_" and appended.
func GenerateCacheKey(objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// ClassificationKey returns the cache key holding the classification entry of
// one question identifier.
func ClassificationKey(questionID string) string {
	return GenerateCacheKey(classificationObjectType, questionID)
}
