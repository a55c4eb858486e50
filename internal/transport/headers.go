package transport

import "net/http"

// ApplyHeaderDefaults enforces the set-if-absent rules of spec.md section
// 4.3: "user-agent" and "accept" (default "*/*") are set only when absent;
// "content-type" is set per body dispatch except for multipart/form-data,
// where the transport must generate the boundary itself. Caller-supplied
// header names/values always survive verbatim.
func ApplyHeaderDefaults(headers http.Header, contentType string, body *FetchBody, userAgent string) {
	if headers.Get("User-Agent") == "" && userAgent != "" {
		headers.Set("User-Agent", userAgent)
	}
	if headers.Get("Accept") == "" {
		headers.Set("Accept", "*/*")
	}
	if body == nil || body.Kind == BodyFormData {
		return
	}
	if headers.Get("Content-Type") == "" && contentType != "" {
		headers.Set("Content-Type", contentType)
	}
}
