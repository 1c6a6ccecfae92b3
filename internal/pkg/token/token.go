package token

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// OTPDigits is the fixed width of email verification codes.
const OTPDigits = 6

var otpSpace = big.NewInt(1_000_000)

// NewOTP draws a code uniformly from [000000, 999999]. Leading zeros are kept
// so every code is exactly OTPDigits wide.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPDigits, n.Int64()), nil
}

// NewResetToken returns a random (version 4) UUID string, 122 bits of entropy.
func NewResetToken() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return u.String(), nil
}
