package teamaccess_test

import (
	"context"
	"io"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/database/dbtest"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/teamaccess"
	"storefront/internal/teamaccess/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func newTestService(t *testing.T) (*teamaccess.Service, *auth.Issuer) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return teamaccess.NewService(&db.DB{Bun: dbtest.New(t)}, issuer, logger.NewWriterLogger(io.Discard)), issuer
}

func TestUnlockRequiresExactSequence(t *testing.T) {
	svc, issuer := newTestService(t)
	ctx := context.Background()

	_, err := svc.Unlock(ctx, []string{"9426+777="})
	assert.ErrorIs(t, err, teamaccess.ErrInvalidSequence, "no active codes")

	_, err = svc.CreateCode(ctx, models.AccessCodeInput{Operation: strPtr("9426+777="), SequenceOrder: intPtr(1)})
	require.NoError(t, err)
	_, err = svc.CreateCode(ctx, models.AccessCodeInput{Operation: strPtr("12x3="), SequenceOrder: intPtr(2)})
	require.NoError(t, err)
	_, err = svc.CreateCode(ctx, models.AccessCodeInput{Operation: strPtr("1+1="), SequenceOrder: intPtr(3), IsActive: boolPtr(false)})
	require.NoError(t, err)

	for _, attempt := range [][]string{
		{"9426+777="},
		{"12*3", "9426+777"},
		{"9426+777", "12*3", "1+1"},
	} {
		_, err := svc.Unlock(ctx, attempt)
		assert.ErrorIs(t, err, teamaccess.ErrInvalidSequence, attempt)
	}

	resp, err := svc.Unlock(ctx, []string{" 9426 + 777 = ", "12 * 3"})
	require.NoError(t, err)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := issuer.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleTeam, claims.Role)
}

func TestCreateCodeValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCode(ctx, models.AccessCodeInput{})
	assert.ErrorIs(t, err, teamaccess.ErrMissingOperation)

	_, err = svc.CreateCode(ctx, models.AccessCodeInput{Operation: strPtr("  ")})
	assert.ErrorIs(t, err, teamaccess.ErrMissingOperation)

	_, err = svc.CreateCode(ctx, models.AccessCodeInput{Operation: strPtr("1+1"), SequenceOrder: intPtr(0)})
	assert.ErrorIs(t, err, teamaccess.ErrInvalidSequenceOrder)

	_, err = svc.CreateCode(ctx, models.AccessCodeInput{Operation: strPtr("hello")})
	assert.ErrorIs(t, err, teamaccess.ErrInvalidOperation)
}

func TestCreateCodeAppendsToSequence(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateCode(ctx, models.AccessCodeInput{Operation: strPtr("1+1"), SequenceOrder: intPtr(4)})
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	second, err := svc.CreateCode(ctx, models.AccessCodeInput{Operation: strPtr("2+2")})
	require.NoError(t, err)
	assert.Equal(t, 5, second.SequenceOrder)
}

func TestUpdateAndDeleteCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCode(ctx, models.AccessCodeInput{Operation: strPtr("1+1")})
	require.NoError(t, err)

	updated, err := svc.UpdateCode(ctx, c.ID, models.AccessCodeInput{Operation: strPtr("5-2="), IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "5-2=", updated.Operation)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 1, updated.SequenceOrder)

	_, err = svc.UpdateCode(ctx, c.ID, models.AccessCodeInput{SequenceOrder: intPtr(-1)})
	assert.ErrorIs(t, err, teamaccess.ErrInvalidSequenceOrder)

	_, err = svc.UpdateCode(ctx, 999, models.AccessCodeInput{})
	assert.ErrorIs(t, err, teamaccess.ErrCodeNotFound)

	deleted, err := svc.DeleteCode(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, deleted.ID)

	_, err = svc.DeleteCode(ctx, c.ID)
	assert.ErrorIs(t, err, teamaccess.ErrCodeNotFound)

	codes, err := svc.ListCodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, codes)
}
