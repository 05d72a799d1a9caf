package service

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	keyAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyGroups     = 4
	keyGroupWidth = 4
)

var keyPattern = regexp.MustCompile(`^[A-Z0-9]{4}(-[A-Z0-9]{4}){3}$`)

// GenerateKey returns a random key of the form XXXX-XXXX-XXXX-XXXX drawn from
// crypto/rand.
func GenerateKey() (string, error) {
	max := big.NewInt(int64(len(keyAlphabet)))
	buf := make([]byte, 0, keyGroups*keyGroupWidth+keyGroups-1)
	for g := 0; g < keyGroups; g++ {
		if g > 0 {
			buf = append(buf, '-')
		}
		for i := 0; i < keyGroupWidth; i++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			buf = append(buf, keyAlphabet[n.Int64()])
		}
	}
	return string(buf), nil
}

// IsKeyFormat reports whether s has the shape produced by GenerateKey.
func IsKeyFormat(s string) bool {
	return keyPattern.MatchString(s)
}
