package router

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

func TestCreateAndLookup(t *testing.T) {
	db := testutil.NewTestDB(t, &Router{})
	svc := NewService(ServiceParams{DB: db})
	ctx := context.Background()

	r, err := svc.Create(ctx, CreateInput{RouterID: "r1", Name: "lobby", OwnerUserID: "op-1"})
	require.NoError(t, err)
	require.Len(t, r.Secret, 32, "generated secret is 16 random bytes in hex")
	require.True(t, r.Enabled)

	got, err := svc.Lookup(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, r.Secret, got.Secret)

	_, err = svc.Create(ctx, CreateInput{RouterID: "r1", Name: "dupe", OwnerUserID: "op-1"})
	require.Error(t, err)
}

func TestLookupMissingOrDisabled(t *testing.T) {
	db := testutil.NewTestDB(t, &Router{})
	svc := NewService(ServiceParams{DB: db})
	ctx := context.Background()

	got, err := svc.Lookup(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = svc.Create(ctx, CreateInput{RouterID: "r1", Name: "lobby", OwnerUserID: "op-1"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&Router{}).Where("router_id = ?", "r1").Update("enabled", false).Error)

	got, err = svc.Lookup(ctx, "r1")
	require.NoError(t, err)
	require.Nil(t, got, "disabled routers do not authorize requests")
}

func TestDeleteOwnerScoped(t *testing.T) {
	db := testutil.NewTestDB(t, &Router{})
	svc := NewService(ServiceParams{DB: db})
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{RouterID: "r1", Name: "lobby", OwnerUserID: "op-1"})
	require.NoError(t, err)

	require.Error(t, svc.Delete(ctx, "r1", "op-2"))
	require.NoError(t, svc.Delete(ctx, "r1", "op-1"))

	rows, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, rows)
}
