package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	minGeneratedPasswordLen = 8
	passwordSymbols         = "!@#$%&*"
	passwordUpper           = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordLower           = "abcdefghijkmnopqrstuvwxyz"
	passwordDigits          = "23456789"
)

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// GeneratePassword returns a random admin password of length n (at least 8)
// with one character from each class. Look-alike characters are left out so
// it can be read off a terminal. Do not log the result.
func GeneratePassword(n int) (string, error) {
	if n < minGeneratedPasswordLen {
		n = minGeneratedPasswordLen
	}
	classes := []string{passwordUpper, passwordLower, passwordDigits, passwordSymbols}
	all := passwordUpper + passwordLower + passwordDigits + passwordSymbols

	out := make([]byte, n)
	for i := range out {
		set := all
		if i < len(classes) {
			set = classes[i]
		}
		j, err := randIndex(len(set))
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = set[j]
	}
	for i := n - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return "", fmt.Errorf("shuffle: %w", err)
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}
