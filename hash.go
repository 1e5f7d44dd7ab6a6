package transbasket

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashLen is the length of the hex-encoded composite key.
const HashLen = 64

var keySeparator = []byte{'|'}

// Hash computes the composite cache key for a translation: the SHA-256
// digest of from, to and text joined by "|", rendered as 64 lowercase
// hex characters.
func Hash(fromLang, toLang, text string) string {
	h := sha256.New()
	h.Write([]byte(fromLang))
	h.Write(keySeparator)
	h.Write([]byte(toLang))
	h.Write(keySeparator)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
