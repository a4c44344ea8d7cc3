package serializer

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Linker builds and parses the absolute resource URLs used in user and group
// representations ("url" and "groups").
type Linker struct {
	// BaseURL is scheme://host with no trailing slash, e.g. "http://localhost:8080".
	BaseURL string
}

func (l Linker) UserURL(id int64) string {
	return fmt.Sprintf("%s/users/%d/", l.BaseURL, id)
}

func (l Linker) GroupURL(id int64) string {
	return fmt.Sprintf("%s/groups/%d/", l.BaseURL, id)
}

// parseGroupLink extracts the group id from a link produced by GroupURL.
// Only the path is inspected, so links minted behind a different host or
// proxy still resolve.
func parseGroupLink(link string) (int64, bool) {
	return parseLink(link, "groups")
}

func parseLink(link, collection string) (int64, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return 0, false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] != collection {
		return 0, false
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
