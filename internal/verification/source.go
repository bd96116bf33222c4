package verification

import "github.com/mssola/useragent"

// SourceInfo is the enriched producer metadata echoed in responses and stored
// on the account record.
type SourceInfo struct {
	Variant   string `json:"variant,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Platform  string `json:"platform,omitempty"`
	SDKVer    string `json:"sdk_version,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	Mobile    bool   `json:"mobile,omitempty"`
}

// EnrichSource parses the webSdk user-agent string into browser and OS fields.
// Mobile SDK submissions carry a platform field instead and pass through.
func EnrichSource(src Source) SourceInfo {
	info := SourceInfo{
		Variant:   src.Variant,
		SessionID: src.SessionID,
		Platform:  src.Platform,
		SDKVer:    src.SDKVer,
	}

	if src.UserAgent != "" {
		ua := useragent.New(src.UserAgent)
		name, version := ua.Browser()
		if name != "" {
			info.Browser = name
			if version != "" {
				info.Browser = name + " " + version
			}
		}
		info.OS = ua.OS()
		info.Mobile = ua.Mobile()
	}

	return info
}
