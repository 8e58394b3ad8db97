// Package device describes the client device that issued a request, from its
// User-Agent header. Signature audit records carry this as signing evidence.
package device

import (
	"context"
	"strconv"

	"github.com/mssola/useragent"

	"notaria/pkg/requestcontext"
)

// Info is the parsed view of a User-Agent string.
type Info struct {
	Browser        string
	BrowserVersion string
	OS             string
	Platform       string
	Mobile         bool
	Bot            bool
}

// Parse extracts device details. An empty string yields the zero Info.
func Parse(userAgent string) Info {
	if userAgent == "" {
		return Info{}
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	return Info{
		Browser:        name,
		BrowserVersion: version,
		OS:             ua.OS(),
		Platform:       ua.Platform(),
		Mobile:         ua.Mobile(),
		Bot:            ua.Bot(),
	}
}

// FromContext parses the User-Agent stored by the client metadata middleware.
func FromContext(ctx context.Context) Info {
	return Parse(requestcontext.UserAgent(ctx))
}

// AuditDetails flattens the info into audit detail keys. Empty values are
// omitted.
func (i Info) AuditDetails() map[string]string {
	out := map[string]string{}
	if i.Browser != "" {
		out["device_browser"] = i.Browser
		if i.BrowserVersion != "" {
			out["device_browser"] += " " + i.BrowserVersion
		}
	}
	if i.OS != "" {
		out["device_os"] = i.OS
	}
	if i.Platform != "" {
		out["device_platform"] = i.Platform
	}
	if i.Browser != "" || i.OS != "" {
		out["device_mobile"] = strconv.FormatBool(i.Mobile)
	}
	if i.Bot {
		out["device_bot"] = "true"
	}
	return out
}
