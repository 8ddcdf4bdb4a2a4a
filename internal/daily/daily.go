// internal/daily/daily.go
//
// Deterministic "number of the day": every player who starts a daily game
// on the same UTC date gets the same secret. Nothing is stored; the secret
// is derived from HMAC(salt, YYYY-MM-DD).

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/numberguess/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Secret returns the daily secret for t's UTC date, in [game.MinNumber, game.MaxNumber].
func Secret(t time.Time, salt string) int {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(t)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for modulus distribution
	n := binary.BigEndian.Uint64(sum[:8])
	span := uint64(game.MaxNumber - game.MinNumber + 1)
	return game.MinNumber + int(n%span)
}
