package verification

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"veridoc/internal/verification/models"
)

type fakeDuplicateStore struct {
	byID    []models.VerificationRecord
	byPhone []models.VerificationRecord
	err     error
}

func (f *fakeDuplicateStore) FindByIDNumber(context.Context, string) ([]models.VerificationRecord, error) {
	return f.byID, f.err
}

func (f *fakeDuplicateStore) FindByPhone(context.Context, string) ([]models.VerificationRecord, error) {
	return f.byPhone, f.err
}

func recordWithName(name string) models.VerificationRecord {
	return models.VerificationRecord{Claim: models.Claim{FullName: name}}
}

func TestDuplicateDetector_SameIDDifferentName(t *testing.T) {
	store := &fakeDuplicateStore{byID: []models.VerificationRecord{recordWithName("XAVIER QUENTIN BLORP")}}
	detector := NewDuplicateDetector(store, slog.Default())

	check := detector.Check(context.Background(), okiyaClaim())

	assert.True(t, check.SameIDDifferentName)
	assert.False(t, check.SamePhoneDifferentName)
}

func TestDuplicateDetector_SamePersonResubmitting(t *testing.T) {
	store := &fakeDuplicateStore{
		byID:    []models.VerificationRecord{recordWithName("OKIYA GEORGE ADISA")},
		byPhone: []models.VerificationRecord{recordWithName("okiya george adisa")},
	}
	detector := NewDuplicateDetector(store, slog.Default())

	check := detector.Check(context.Background(), okiyaClaim())

	assert.False(t, check.SameIDDifferentName)
	assert.False(t, check.SamePhoneDifferentName)
}

func TestDuplicateDetector_PhoneReuseByDifferentPerson(t *testing.T) {
	store := &fakeDuplicateStore{byPhone: []models.VerificationRecord{recordWithName("XAVIER QUENTIN BLORP")}}
	detector := NewDuplicateDetector(store, slog.Default())

	check := detector.Check(context.Background(), okiyaClaim())

	assert.False(t, check.SameIDDifferentName)
	assert.True(t, check.SamePhoneDifferentName)
}

func TestDuplicateDetector_StoreFailureFailsOpen(t *testing.T) {
	store := &fakeDuplicateStore{err: errors.New("connection refused")}
	detector := NewDuplicateDetector(store, slog.Default())

	check := detector.Check(context.Background(), okiyaClaim())

	assert.False(t, check.SameIDDifferentName)
	assert.False(t, check.SamePhoneDifferentName)
}

func TestDuplicateDetector_NoStoreConfigured(t *testing.T) {
	detector := NewDuplicateDetector(nil, slog.Default())

	check := detector.Check(context.Background(), okiyaClaim())

	assert.False(t, check.SameIDDifferentName)
}
