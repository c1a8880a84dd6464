// Package random generates unguessable strings for confirmation codes.
package random

import (
	"crypto/rand"
	"math/big"
)

const alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var alphabetSize = big.NewInt(int64(len(alphanumeric)))

// Seq returns n characters drawn uniformly from [0-9a-zA-Z] using crypto/rand.
func Seq(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		buf[i] = alphanumeric[idx.Int64()]
	}
	return string(buf)
}
