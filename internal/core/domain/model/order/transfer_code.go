package order

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"custody/internal/pkg/errs"
	"custody/internal/pkg/guard"
)

const (
	// TransferCodeTTL is how long an issued code can be verified.
	TransferCodeTTL = 15 * time.Minute
	// TransferCodeLength is the number of decimal digits in a code.
	TransferCodeLength = 6
)

var ErrTransferCodeIsNotConstructed = errors.New("TransferCode must be created via NewTransferCode constructor")

// TransferCode is the one-time code authorising the move to targetHop.
type TransferCode struct {
	code      string
	issuedAt  time.Time
	targetHop int
	verified  bool
	guard     guard.ConstructorGuard
}

// GenerateTransferCodeDigits draws a six digit code from crypto/rand.
func GenerateTransferCodeDigits() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate transfer code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// NewTransferCode creates an unverified code for targetHop.
func NewTransferCode(code string, issuedAt time.Time, targetHop int) (TransferCode, error) {
	return RestoreTransferCode(code, issuedAt, targetHop, false)
}

// RestoreTransferCode rebuilds a stored code.
func RestoreTransferCode(code string, issuedAt time.Time, targetHop int, verified bool) (TransferCode, error) {
	if err := validateDigits(code); err != nil {
		return TransferCode{}, err
	}
	if issuedAt.IsZero() {
		return TransferCode{}, errs.NewValueIsRequiredError("issuedAt")
	}
	if targetHop < 1 {
		return TransferCode{}, errs.NewValueIsOutOfRangeError("targetHop", targetHop, 1, "track length - 1")
	}
	return TransferCode{
		code:      code,
		issuedAt:  issuedAt,
		targetHop: targetHop,
		verified:  verified,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func validateDigits(code string) error {
	if code == "" {
		return errs.NewValueIsRequiredError("code")
	}
	if len(code) != TransferCodeLength {
		return errs.NewValueIsInvalidErrorWithCause("code", fmt.Errorf("must have %d digits", TransferCodeLength))
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return errs.NewValueIsInvalidErrorWithCause("code", errors.New("must be numeric"))
		}
	}
	return nil
}

func (c TransferCode) Validate() error {
	return c.guard.Validate(ErrTransferCodeIsNotConstructed)
}

func (c TransferCode) Code() string {
	return c.code
}

func (c TransferCode) IssuedAt() time.Time {
	return c.issuedAt
}

func (c TransferCode) ExpiresAt() time.Time {
	return c.issuedAt.Add(TransferCodeTTL)
}

// TargetHop is the track index the code authorises custody to move to.
func (c TransferCode) TargetHop() int {
	return c.targetHop
}

func (c TransferCode) IsVerified() bool {
	return c.verified
}

// IsExpired reports whether more than TransferCodeTTL elapsed since issue.
func (c TransferCode) IsExpired(now time.Time) bool {
	return now.Sub(c.issuedAt) > TransferCodeTTL
}

// Matches compares in constant time.
func (c TransferCode) Matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(c.code), []byte(code)) == 1
}
