// services/otp_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examsaathi/examsaathi_backend/models"
	"github.com/examsaathi/examsaathi_backend/utils"
)

// OTPValidity is how long an issued code stays usable.
const OTPValidity = 5 * time.Minute

var (
	ErrStoreUnavailable = errors.New("database not available")
	ErrNotFound         = errors.New("start verification first")
	ErrNoChallenge      = errors.New("no OTP generated")
	ErrExpired          = errors.New("OTP expired")
	ErrMismatch         = errors.New("invalid OTP")
)

// AuthStore is the persistence surface the OTP flow needs. Each operation
// touches exactly one auth record, so single-document write atomicity is the
// only guarantee required of an implementation.
type AuthStore interface {
	// FindByPhone returns the auth record for phone, or ErrNotFound.
	FindByPhone(ctx context.Context, phone string) (*models.AuthRecord, error)
	// UpsertChallenge overwrites the outstanding challenge for phone,
	// stamping created_at only on insert and never touching verified.
	UpsertChallenge(ctx context.Context, name, phone, code string, expires, now time.Time) error
	// MarkVerified sets verified=true and removes both otp fields in one
	// atomic update. Returns ErrNotFound if the record vanished.
	MarkVerified(ctx context.Context, phone string) error
}

// OTPService implements the start/verify phone-verification flow. One auth
// record exists per phone; a new start request always invalidates any
// previously issued code by overwriting it.
type OTPService struct {
	store AuthStore
	now   func() time.Time
}

// NewOTPService creates the OTP flow service. A nil store is allowed: every
// operation then fails with ErrStoreUnavailable, mirroring a backend started
// without store configuration.
func NewOTPService(store AuthStore) *OTPService {
	return &OTPService{store: store, now: time.Now}
}

// StartVerification issues a fresh 6-digit code for phone and upserts the
// auth record. Returns the code and its validity window.
func (s *OTPService) StartVerification(ctx context.Context, name, phone string) (string, time.Duration, error) {
	if s.store == nil {
		return "", 0, ErrStoreUnavailable
	}

	code := utils.GenerateOTP()
	now := s.now().UTC()
	expires := now.Add(OTPValidity)

	if err := s.store.UpsertChallenge(ctx, name, phone, code, expires, now); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return code, OTPValidity, nil
}

// VerifyCode checks code against the outstanding challenge for phone. On
// success the record is marked verified and the challenge is cleared. Checks
// run in a fixed order: missing record, missing challenge, expiry, mismatch.
func (s *OTPService) VerifyCode(ctx context.Context, phone, code string) error {
	if s.store == nil {
		return ErrStoreUnavailable
	}

	record, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if record.OTPCode == "" || record.OTPExpires == nil {
		return ErrNoChallenge
	}

	if s.now().UTC().After(record.OTPExpires.UTC()) {
		return ErrExpired
	}

	if code != record.OTPCode {
		return ErrMismatch
	}

	if err := s.store.MarkVerified(ctx, phone); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// GetRecord returns the auth record for phone.
func (s *OTPService) GetRecord(ctx context.Context, phone string) (*models.AuthRecord, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}

	record, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return record, nil
}
