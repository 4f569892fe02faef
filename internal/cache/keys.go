package cache

import "fmt"

func SessionFieldKey(tabID, field string) string {
	return fmt.Sprintf("session:%s:%s", tabID, field)
}

func RateLimitKey(scope string) string {
	return fmt.Sprintf("ratelimit:%s", scope)
}
