package queue

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"
)

const (
	checkInSuffixLength = 6
	base36Alphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewCheckInCode returns a token of the form PREFIX-<unix millis>-<6 base36 chars>.
// A nil source uses crypto/rand.
func NewCheckInCode(prefix string, now time.Time, source io.Reader) (string, error) {
	if source == nil {
		source = rand.Reader
	}

	alphabetSize := big.NewInt(int64(len(base36Alphabet)))
	var suffix strings.Builder
	for i := 0; i < checkInSuffixLength; i++ {
		n, err := rand.Int(source, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate check-in code: %w", err)
		}
		suffix.WriteByte(base36Alphabet[n.Int64()])
	}

	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), suffix.String()), nil
}
