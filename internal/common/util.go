package common

import (
	"crypto/rand"
	"math/big"
)

// MakeRandDigits returns a string of n random decimal digits, used for
// one-time confirmation codes.
func MakeRandDigits(n int) (string, error) {
	out := make([]byte, n)
	ten := big.NewInt(10)
	for i := range out {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out), nil
}
