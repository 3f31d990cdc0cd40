package infrastructure

import "strings"

// Failure classification over captured tool output. The extraction tool has
// no structured error channel, so these are ordered substring predicates;
// their exact matching rules are load-bearing for retry compatibility.

// IsSSLRelatedError reports whether the output text indicates a TLS or
// certificate verification failure. Matching is case-insensitive; the
// tls/handshake rule requires both substrings anywhere in the text.
func IsSSLRelatedError(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "certificate_verify_failed") ||
		strings.Contains(t, "unable to get local issuer certificate") ||
		strings.Contains(t, "sslc") ||
		(strings.Contains(t, "tls") && strings.Contains(t, "handshake")) ||
		strings.Contains(t, "ssl:")
}

// IsLoginRequiredError reports whether the output text indicates the video
// needs authentication. The login/vimeo rule requires both substrings
// anywhere in the text, case-insensitive.
func IsLoginRequiredError(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "only works when logged-in") ||
		strings.Contains(t, "provide account credentials") ||
		strings.Contains(t, "use --cookies") ||
		strings.Contains(t, "use --cookies-from-browser") ||
		(strings.Contains(t, "login") && strings.Contains(t, "vimeo"))
}

// IsChromeCookieCopyError reports whether the tool failed to read Chrome's
// cookie store, typically because a running Chrome holds the database lock.
func IsChromeCookieCopyError(text string) bool {
	return strings.Contains(strings.ToLower(text), "could not copy chrome cookie database")
}
