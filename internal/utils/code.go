package utils

import "crypto/rand"

// codeAlphabet omits 0/O and 1/I so codes can be read out at the door.
// Its length is 32, which divides 256 and keeps the draw unbiased.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewConfirmationCode returns a random code of n characters drawn from
// codeAlphabet using crypto/rand.
func NewConfirmationCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
