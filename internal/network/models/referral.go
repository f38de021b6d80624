package models

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// referralAlphabet omits 0/O and 1/I/L so codes survive being read aloud or
// copied by hand.
const referralAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// ReferralCodeLength gives 31^8 (about 8.5e11) codes.
const ReferralCodeLength = 8

// ReferralCode is a human-shareable participant handle.
type ReferralCode string

// NewReferralCode draws a code from crypto/rand. Uniqueness is enforced by
// the store; callers retry on collision.
func NewReferralCode() (ReferralCode, error) {
	var b strings.Builder
	b.Grow(ReferralCodeLength)
	max := big.NewInt(int64(len(referralAlphabet)))
	for range ReferralCodeLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(referralAlphabet[n.Int64()])
	}
	return ReferralCode(b.String()), nil
}

// NormalizeReferralCode uppercases and trims user input. It does not map
// confusable characters; a code containing one is simply invalid.
func NormalizeReferralCode(s string) ReferralCode {
	return ReferralCode(strings.ToUpper(strings.TrimSpace(s)))
}

func (c ReferralCode) Valid() bool {
	if len(c) != ReferralCodeLength {
		return false
	}
	for i := 0; i < len(c); i++ {
		if strings.IndexByte(referralAlphabet, c[i]) < 0 {
			return false
		}
	}
	return true
}

func (c ReferralCode) String() string { return string(c) }
