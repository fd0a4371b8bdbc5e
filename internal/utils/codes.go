package utils

import "crypto/rand"

// codeAlphabet is shared by gate access codes and subscription codes.
// 0/O and 1/I are dropped to avoid transcription mistakes at the gate
// keypad.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateCode returns a random code of the given length drawn from
// the keypad-safe alphabet, built from cryptographically secure
// random bytes.
func GenerateCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
