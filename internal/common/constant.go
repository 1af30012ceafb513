package common

// AuthHeaderName is the HTTP header used to carry the access token on
// outbound API requests. The value is sent as "Bearer <token>".
const AuthHeaderName = "Authorization"

// Metadata-store keys used by the client.
const (
	// MetaKeyAccessToken holds the current session's access token.
	MetaKeyAccessToken = "access_token"

	// MetaKeyTracePrefix prefixes per-entry trace id records. The full key is
	// MetaKeyTracePrefix + entry id ("new" for an unsaved entry).
	MetaKeyTracePrefix = "trace:"
)
