package profile

import (
	"context"
	"testing"

	"hotspot-voucherd/services/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestCreateValidation(t *testing.T) {
	db := testutil.NewTestDB(t, &Profile{})
	svc := NewService(ServiceParams{DB: db})
	ctx := context.Background()

	_, err := svc.Create(ctx, Profile{Name: "1h", DurationSeconds: 3600, ExpiryDays: 7})
	require.NoError(t, err)

	for _, bad := range []Profile{
		{Name: "", DurationSeconds: 3600},
		{Name: "x", DurationSeconds: 0},
		{Name: "x", DurationSeconds: 3600, QuotaUpBytes: -1},
		{Name: "x", DurationSeconds: 3600, Price: -1},
	} {
		_, err := svc.Create(ctx, bad)
		require.Error(t, err, "profile %+v", bad)
	}

	_, err = svc.Create(ctx, Profile{Name: "1h", DurationSeconds: 60})
	require.Error(t, err, "duplicate name")
}

func TestGetAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t, &Profile{})
	svc := NewService(ServiceParams{DB: db})
	ctx := context.Background()

	_, err := svc.Get(ctx, "nope")
	require.Error(t, err)

	_, err = svc.Create(ctx, Profile{Name: "1h", DurationSeconds: 3600, ExpiryDays: 7})
	require.NoError(t, err)

	p, err := svc.Get(ctx, "1h")
	require.NoError(t, err)
	require.Equal(t, int64(3600), p.DurationSeconds)

	require.NoError(t, svc.Delete(ctx, "1h"))
	require.Error(t, svc.Delete(ctx, "1h"))
}
