package normalize

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Media holds the processed-media links an inference response may carry.
// Root-relative URLs are resolved against the API base.
type Media struct {
	OutputURL     string `json:"output_url,omitempty"`
	OutputKind    string `json:"output_kind,omitempty"`
	ComparisonURL string `json:"comparison_url,omitempty"`
	LogURL        string `json:"log_url,omitempty"`
}

// ExtractMedia pulls output_url, comparison_url and log_url from a payload.
// apiBase must already have its trailing slash stripped.
func ExtractMedia(payload []byte, apiBase string) Media {
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return Media{}
	}

	var out Media
	if raw := stringField(root, "output_url"); raw != "" {
		out.OutputURL = absoluteURL(raw, apiBase)
		out.OutputKind = mediaKind(raw)
	}
	if raw := stringField(root, "comparison_url"); raw != "" {
		out.ComparisonURL = absoluteURL(raw, apiBase)
	}
	if raw := stringField(root, "log_url"); raw != "" {
		out.LogURL = absoluteURL(raw, apiBase)
	}
	return out
}

func stringField(root gjson.Result, key string) string {
	if r := root.Get(key); r.Type == gjson.String {
		return r.String()
	}
	return ""
}

func absoluteURL(raw, apiBase string) string {
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	return apiBase + raw
}

var videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}

func mediaKind(raw string) string {
	lower := strings.ToLower(raw)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return "video"
		}
	}
	return "image"
}
