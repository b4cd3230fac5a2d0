package util

import (
	"mime"
	"strings"
)

// BaseMIME lower-cases the media type and drops any parameters.
func BaseMIME(mimeType string) string {
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return base
}

// MIMEAllowList matches media types against exact entries and "type/*" wildcards.
// An empty list allows everything.
type MIMEAllowList struct {
	exact    map[string]struct{}
	prefixes []string
}

func NewMIMEAllowList(allowed []string) MIMEAllowList {
	list := MIMEAllowList{exact: make(map[string]struct{}, len(allowed))}
	for _, entry := range allowed {
		cleaned := strings.ToLower(strings.TrimSpace(entry))
		if cleaned == "" {
			continue
		}
		if strings.HasSuffix(cleaned, "/*") {
			list.prefixes = append(list.prefixes, strings.TrimSuffix(cleaned, "*"))
			continue
		}
		list.exact[cleaned] = struct{}{}
	}
	return list
}

func (l MIMEAllowList) Allows(mimeType string) bool {
	if len(l.exact) == 0 && len(l.prefixes) == 0 {
		return true
	}

	base := BaseMIME(mimeType)
	if base == "" {
		return false
	}
	if _, ok := l.exact[base]; ok {
		return true
	}
	for _, prefix := range l.prefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	return false
}

func IsImageMIME(mimeType string) bool {
	return strings.HasPrefix(BaseMIME(mimeType), "image/")
}

func IsVideoMIME(mimeType string) bool {
	return strings.HasPrefix(BaseMIME(mimeType), "video/")
}
