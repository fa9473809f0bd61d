package podcastindex

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"
)

// Header names used by the PodcastIndex authentication scheme
const (
	HeaderAuthKey       = "X-Auth-Key"
	HeaderAuthDate      = "X-Auth-Date"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
)

// Signature returns hex(sha1(key + secret + unix timestamp)).
func Signature(apiKey, apiSecret string, ts int64) string {
	sum := sha1.Sum([]byte(apiKey + apiSecret + strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(sum[:])
}

// AuthHeaders builds the per-request authentication headers at now.
// The signature depends on the timestamp, so it must be built per call.
func AuthHeaders(apiKey, apiSecret, userAgent string, now time.Time) http.Header {
	ts := now.Unix()
	h := http.Header{}
	h.Set(HeaderAuthKey, apiKey)
	h.Set(HeaderAuthDate, strconv.FormatInt(ts, 10))
	h.Set(HeaderAuthorization, Signature(apiKey, apiSecret, ts))
	if userAgent != "" {
		h.Set(HeaderUserAgent, userAgent)
	}
	return h
}
