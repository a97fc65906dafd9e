package parse

import (
	"fmt"
	"net/url"
	"strings"
)

// Sentinel marks assistant-facing text that carries the one sanctioned
// remediation hyperlink. Consumers that render messages treat everything as
// inert text unless this prefix is present; the advisor strips it before
// display.
const Sentinel = "[[missing-category]]"

// remediationPath is the category-management surface of a tracker.
const remediationPath = "/trackers/%s/categories"

// RemediationLink builds the single trusted hyperlink fragment permitted
// inside a message. The tracker ID is path-escaped; nothing user-controlled
// reaches the href any other way.
func RemediationLink(trackerID string) string {
	href := fmt.Sprintf(remediationPath, url.PathEscape(trackerID))
	return fmt.Sprintf(`<a href="%s">Manage categories</a>`, href)
}

// WrapMissingCategoryMessage produces the gateway's sentinel-prefixed
// message text: the boundary's own message followed by the remediation link.
func WrapMissingCategoryMessage(boundaryMessage, trackerID string) string {
	msg := strings.TrimSpace(boundaryMessage)
	return Sentinel + " " + msg + " " + RemediationLink(trackerID)
}

// StripSentinel removes the sentinel prefix and the remediation link,
// returning plain display text. Text without the sentinel is returned
// unchanged.
func StripSentinel(content string) string {
	if !strings.HasPrefix(content, Sentinel) {
		return content
	}
	s := strings.TrimSpace(strings.TrimPrefix(content, Sentinel))
	if idx := strings.Index(s, "<a href="); idx != -1 {
		s = strings.TrimSpace(s[:idx])
	}
	return s
}
