package coupons

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// CodePrefix marks every recovery code this service issues.
	CodePrefix = "COMEBACK-"

	codeLength = 6
	// codeAlphabet excludes 0/O/1/I so codes survive being read aloud or
	// typed from a postcard.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateCode returns a fresh recovery code, e.g. COMEBACK-AB12CD.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	var b strings.Builder
	b.WriteString(CodePrefix)
	for _, by := range buf {
		b.WriteByte(codeAlphabet[int(by)%len(codeAlphabet)])
	}
	return b.String(), nil
}

// IsRecoveryCode reports whether a promotion code was issued by this
// service.
func IsRecoveryCode(code string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(code)), CodePrefix)
}
