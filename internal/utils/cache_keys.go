package utils

import "strconv"

// ContentCachePrefix is shared by every cached read of one resource kind,
// so a write can drop them together.
func ContentCachePrefix(resource string) string {
	return "content:" + resource + ":"
}

func ContentListCacheKey(resource, ownerID string, limit int) string {
	return ContentCachePrefix(resource) + "list:v1:owner=" + ownerID + ":limit=" + strconv.Itoa(limit)
}

func ContentItemCacheKey(resource, id string) string {
	return ContentCachePrefix(resource) + "item:v1:" + id
}
