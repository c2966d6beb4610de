package orders

import (
	"crypto/rand"
	"fmt"
)

// referenceAlphabet skips 0/O and 1/I so references survive being read
// aloud over comms.
const referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const referenceLength = 8

// NewOrderReference returns a human-quotable order reference like MX-7K2Q4DPX.
// Uniqueness is enforced by the database index; collisions on 32^8 values are
// rare enough to surface as a create failure.
func NewOrderReference() (string, error) {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order reference: %w", err)
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return "MX-" + string(buf), nil
}
