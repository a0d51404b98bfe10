package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examsaathi/examsaathi_backend/models"
)

// fakeStore is an in-memory AuthStore with the same single-document
// semantics as the Mongo repository.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]models.AuthRecord
	failErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]models.AuthRecord)}
}

func (f *fakeStore) FindByPhone(_ context.Context, phone string) (*models.AuthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	record, ok := f.records[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (f *fakeStore) UpsertChallenge(_ context.Context, name, phone, code string, expires, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	record, ok := f.records[phone]
	if !ok {
		record = models.AuthRecord{Phone: phone, CreatedAt: now}
	}
	record.Name = name
	record.OTPCode = code
	record.OTPExpires = &expires
	record.UpdatedAt = now
	f.records[phone] = record
	return nil
}

func (f *fakeStore) MarkVerified(_ context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	record, ok := f.records[phone]
	if !ok {
		return ErrNotFound
	}
	record.Verified = true
	record.OTPCode = ""
	record.OTPExpires = nil
	f.records[phone] = record
	return nil
}

func (f *fakeStore) get(phone string) models.AuthRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[phone]
}

func newTestService(store AuthStore, now time.Time) (*OTPService, *time.Time) {
	clock := now
	svc := NewOTPService(store)
	svc.now = func() time.Time { return clock }
	return svc, &clock
}

func TestStartThenVerify(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, _ := newTestService(store, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	code, validity, err := svc.StartVerification(ctx, "Alice", "5551234567")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, validity)
	assert.Regexp(t, regexp.MustCompile(`^[1-9][0-9]{5}$`), code)

	record := store.get("5551234567")
	assert.Equal(t, "Alice", record.Name)
	assert.Equal(t, code, record.OTPCode)
	require.NotNil(t, record.OTPExpires)
	assert.False(t, record.Verified)

	require.NoError(t, svc.VerifyCode(ctx, "5551234567", code))

	record = store.get("5551234567")
	assert.True(t, record.Verified)
	assert.Empty(t, record.OTPCode)
	assert.Nil(t, record.OTPExpires)
}

func TestVerifyBeforeStart(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeStore(), time.Now())
	err := svc.VerifyCode(context.Background(), "5550000000", "123456")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyWrongCode(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, _ := newTestService(store, time.Now())
	ctx := context.Background()

	code, _, err := svc.StartVerification(ctx, "Bob", "5551112222")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	assert.ErrorIs(t, svc.VerifyCode(ctx, "5551112222", wrong), ErrMismatch)

	// The challenge survives a failed attempt
	record := store.get("5551112222")
	assert.Equal(t, code, record.OTPCode)
	assert.False(t, record.Verified)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, clock := newTestService(newFakeStore(), start)
	ctx := context.Background()

	code, _, err := svc.StartVerification(ctx, "Carol", "5553334444")
	require.NoError(t, err)

	// Expiry is strict: at the exact boundary the code is still good
	*clock = start.Add(5 * time.Minute)
	require.NoError(t, svc.VerifyCode(ctx, "5553334444", code))

	code, _, err = svc.StartVerification(ctx, "Carol", "5553334444")
	require.NoError(t, err)

	*clock = clock.Add(5*time.Minute + time.Second)
	assert.ErrorIs(t, svc.VerifyCode(ctx, "5553334444", code), ErrExpired)
}

func TestRestartInvalidatesPreviousCode(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, _ := newTestService(store, time.Now())
	ctx := context.Background()

	first, _, err := svc.StartVerification(ctx, "Dave", "5555556666")
	require.NoError(t, err)

	second := first
	for i := 0; i < 10 && second == first; i++ {
		second, _, err = svc.StartVerification(ctx, "Dave", "5555556666")
		require.NoError(t, err)
	}
	require.NotEqual(t, first, second, "could not draw a distinct second code")

	assert.ErrorIs(t, svc.VerifyCode(ctx, "5555556666", first), ErrMismatch)
	assert.NoError(t, svc.VerifyCode(ctx, "5555556666", second))
}

func TestRestartAfterVerifyKeepsVerifiedFlag(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, _ := newTestService(store, time.Now())
	ctx := context.Background()

	code, _, err := svc.StartVerification(ctx, "Eve", "5557778888")
	require.NoError(t, err)
	require.NoError(t, svc.VerifyCode(ctx, "5557778888", code))

	created := store.get("5557778888").CreatedAt

	// A verified phone can re-enter challenge state; the flag is not reset
	_, _, err = svc.StartVerification(ctx, "Eve", "5557778888")
	require.NoError(t, err)

	record := store.get("5557778888")
	assert.True(t, record.Verified)
	assert.NotEmpty(t, record.OTPCode)
	assert.NotNil(t, record.OTPExpires)
	assert.Equal(t, created, record.CreatedAt, "created_at is stamped once")
}

func TestVerifyWithoutOutstandingChallenge(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, _ := newTestService(store, time.Now())
	ctx := context.Background()

	code, _, err := svc.StartVerification(ctx, "Frank", "5559990000")
	require.NoError(t, err)
	require.NoError(t, svc.VerifyCode(ctx, "5559990000", code))

	// The challenge was consumed; a repeat verify has nothing to check
	assert.ErrorIs(t, svc.VerifyCode(ctx, "5559990000", code), ErrNoChallenge)
}

func TestNilStore(t *testing.T) {
	t.Parallel()

	svc := NewOTPService(nil)
	ctx := context.Background()

	_, _, err := svc.StartVerification(ctx, "Grace", "5551230000")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, svc.VerifyCode(ctx, "5551230000", "123456"), ErrStoreUnavailable)
	_, err = svc.GetRecord(ctx, "5551230000")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestStoreFailureWrapsUnavailable(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.failErr = errors.New("connection reset")
	svc, _ := newTestService(store, time.Now())
	ctx := context.Background()

	_, _, err := svc.StartVerification(ctx, "Heidi", "5554443333")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, svc.VerifyCode(ctx, "5554443333", "123456"), ErrStoreUnavailable)
}

func TestGetRecord(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, _ := newTestService(store, time.Now())
	ctx := context.Background()

	_, err := svc.GetRecord(ctx, "5550001111")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.StartVerification(ctx, "Ivan", "5550001111")
	require.NoError(t, err)

	record, err := svc.GetRecord(ctx, "5550001111")
	require.NoError(t, err)
	assert.Equal(t, "Ivan", record.Name)
}
