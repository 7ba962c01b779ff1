package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

// GenerateSessionToken returns an opaque checkout session token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Alphabet for booking references: no 0/O, 1/I or vowels, so codes read
// unambiguously over the phone and cannot spell words.
const referenceAlphabet = "23456789BCDFGHJKLMNPQRSTVWXZ"

// GenerateBookingReference creates a human-shareable booking code.
// Format: TKT-YYYYMMDD-XXXXXX
func GenerateBookingReference() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := make([]byte, len(b))
	for i, v := range b {
		code[i] = referenceAlphabet[int(v)%len(referenceAlphabet)]
	}

	return fmt.Sprintf("TKT-%s-%s", time.Now().Format("20060102"), code), nil
}
