// go-utils/random.go

package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	digits     = "0123456789"
	upperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RandomNumericString generates a random string containing only digits.
// Each position is drawn uniformly, so a 6-digit result is uniform over
// 000000-999999.
func RandomNumericString(length int) string {
	return randomFrom(digits, length)
}

// RandomAlphanumericString generates an upper-case [A-Z0-9] string.
func RandomAlphanumericString(length int) string {
	return randomFrom(upperAlnum, length)
}

func randomFrom(alphabet string, length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err) // crypto/rand failing means the host is unusable
		}
		b[i] = alphabet[num.Int64()]
	}
	return string(b)
}
