package utils

import (
	"fmt"
	"net/url"
)

// DefaultAvatarURL returns the generated avatar for accounts registered
// without one.
func DefaultAvatarURL(username string) string {
	return fmt.Sprintf("https://api.dicebear.com/9.x/avataaars/svg?seed=%s", url.QueryEscape(username))
}
