// utils/codes.go
package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gosimple/slug"
)

// ChallengeCode builds the human-shareable code for a challenge: a slug of
// the proposer's username plus a random hex suffix, e.g. "magnus-4f09a1".
// The suffix alone carries the uniqueness; the prefix is there so a code
// pasted into chat tells the recipient who it came from.
func ChallengeCode(username string) string {
	prefix := slug.Make(username)
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	if prefix == "" {
		prefix = "challenge"
	}

	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the host is broken; zero suffix still
		// collides on the unique index rather than silently reusing a code
		return prefix + "-000000"
	}
	return prefix + "-" + hex.EncodeToString(buf)
}
