// Package device derives session device metadata from HTTP client hints.
package device

import (
	"strings"

	"github.com/mssola/useragent"

	"identra.org/internal/auth"
)

// Parse extracts browser, OS and a display name from a raw User-Agent
// string. Desktop and laptop browsers classify as web; bots as api; only
// mobile agents get their own type. An empty or unrecognizable value yields
// a usable fallback rather than an error.
func Parse(rawUA string) auth.DeviceInfo {
	info := auth.DeviceInfo{
		UserAgent:  rawUA,
		DeviceType: auth.DeviceWeb,
		DeviceName: "Unknown Device",
	}
	rawUA = strings.TrimSpace(rawUA)
	if rawUA == "" {
		info.UserAgent = ""
		return info
	}

	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	info.Browser = browser
	info.OS = ua.OS()

	switch {
	case ua.Bot():
		info.DeviceType = auth.DeviceAPI
	case ua.Mobile():
		info.DeviceType = auth.DeviceMobile
	}

	name := browser
	if name == "" {
		name = "Unknown"
	}
	if info.OS != "" {
		name += " on " + info.OS
	} else if platform := ua.Platform(); platform != "" {
		name += " on " + platform
	}
	info.DeviceName = name
	return info
}
