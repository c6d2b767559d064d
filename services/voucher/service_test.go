package voucher

import (
	"context"
	"testing"

	"hotspot-voucherd/services/profile"
	"hotspot-voucherd/services/router"
	"hotspot-voucherd/services/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t,
		&router.Router{},
		&profile.Profile{},
		&Voucher{},
		&Session{},
	)

	profiles := profile.NewService(profile.ServiceParams{DB: db})
	svc := NewService(ServiceParams{DB: db, Profiles: profiles})

	require.NoError(t, db.Create(&profile.Profile{
		Name:            "1h",
		DurationSeconds: 3600,
		QuotaUpBytes:    512,
		QuotaDownBytes:  1024,
		ExpiryDays:      7,
	}).Error)
	require.NoError(t, db.Create(&router.Router{
		RouterID:    "r1",
		Name:        "lobby",
		OwnerUserID: "op-1",
		Secret:      "s",
		Enabled:     true,
	}).Error)

	return svc, db
}

func TestGenerateBatch(t *testing.T) {
	svc, db := newTestService(t)

	codes, err := svc.Generate(context.Background(), GenerateInput{
		OwnerUserID: "op-1",
		ProfileName: "1h",
		Quantity:    25,
	})
	require.NoError(t, err)
	require.Len(t, codes, 25)

	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		require.Len(t, code, codeLength)
		require.False(t, seen[code], "codes must be unique within a batch")
		seen[code] = true
		for _, r := range code {
			require.Contains(t, codeAlphabet, string(r), "code %s uses a character outside the alphabet", code)
		}
	}

	var v Voucher
	require.NoError(t, db.Where("code = ?", codes[0]).First(&v).Error)
	require.Equal(t, StatusUnused, v.Status)
	require.Equal(t, "op-1", v.OwnerUserID)
	require.Equal(t, ScopeAny, v.RouterScope)
	require.Equal(t, int64(3600), v.DurationSeconds)
	require.Equal(t, int64(512), v.QuotaUpBytes)
	require.Greater(t, v.ExpiresAt, v.CreatedAt)
}

func TestGenerateScopedToOwnedRouter(t *testing.T) {
	svc, _ := newTestService(t)

	codes, err := svc.Generate(context.Background(), GenerateInput{
		OwnerUserID: "op-1",
		ProfileName: "1h",
		Scope:       "r1",
		Quantity:    1,
	})
	require.NoError(t, err)
	require.Len(t, codes, 1)
}

func TestGenerateRejectsForeignRouterScope(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Generate(context.Background(), GenerateInput{
		OwnerUserID: "op-2",
		ProfileName: "1h",
		Scope:       "r1",
		Quantity:    1,
	})
	require.Error(t, err)
}

func TestGenerateQuantityBounds(t *testing.T) {
	svc, _ := newTestService(t)

	for _, qty := range []int{0, -1, maxBatchSize + 1} {
		_, err := svc.Generate(context.Background(), GenerateInput{
			OwnerUserID: "op-1",
			ProfileName: "1h",
			Quantity:    qty,
		})
		require.Error(t, err, "qty %d", qty)
	}
}

func TestGenerateUnknownProfile(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Generate(context.Background(), GenerateInput{
		OwnerUserID: "op-1",
		ProfileName: "nope",
		Quantity:    1,
	})
	require.Error(t, err)
}

func TestRevoke(t *testing.T) {
	svc, db := newTestService(t)

	codes, err := svc.Generate(context.Background(), GenerateInput{
		OwnerUserID: "op-1", ProfileName: "1h", Quantity: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), codes[0], "op-1"))

	var v Voucher
	require.NoError(t, db.Where("code = ?", codes[0]).First(&v).Error)
	require.Equal(t, StatusRevoked, v.Status)

	// Revoking someone else's voucher fails.
	require.Error(t, svc.Revoke(context.Background(), codes[0], "op-2"))
}

func TestDeleteOwnerScoped(t *testing.T) {
	svc, _ := newTestService(t)

	codes, err := svc.Generate(context.Background(), GenerateInput{
		OwnerUserID: "op-1", ProfileName: "1h", Quantity: 1,
	})
	require.NoError(t, err)

	require.Error(t, svc.Delete(context.Background(), codes[0], "op-2"))
	require.NoError(t, svc.Delete(context.Background(), codes[0], "op-1"))
	require.Error(t, svc.Delete(context.Background(), codes[0], "op-1"))
}

func TestListUIStatus(t *testing.T) {
	svc, db := newTestService(t)

	codes, err := svc.Generate(context.Background(), GenerateInput{
		OwnerUserID: "op-1", ProfileName: "1h", Quantity: 2,
	})
	require.NoError(t, err)

	// Mark one voucher used with a running session.
	require.NoError(t, db.Model(&Voucher{}).Where("code = ?", codes[0]).
		Updates(map[string]interface{}{"status": StatusUsed, "used_by_mac": "aa:bb:cc:dd:ee:ff"}).Error)
	require.NoError(t, db.Create(&Session{
		ID: 1, RouterID: "r1", MAC: "aa:bb:cc:dd:ee:ff", VoucherCode: codes[0],
		StartAt: 0, EndAt: 1<<62 - 1,
	}).Error)

	views, err := svc.List(context.Background(), ListFilter{OwnerUserID: "op-1"})
	require.NoError(t, err)
	require.Len(t, views, 2)

	byCode := make(map[string]string, len(views))
	for _, v := range views {
		byCode[v.Code] = v.UIStatus
	}
	require.Equal(t, "active", byCode[codes[0]])
	require.Equal(t, "unused", byCode[codes[1]])
}

func TestDashboardScoping(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.Generate(context.Background(), GenerateInput{
		OwnerUserID: "op-1", ProfileName: "1h", Quantity: 3,
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&router.Router{
		RouterID: "r2", Name: "annex", OwnerUserID: "op-2", Secret: "s2", Enabled: true,
	}).Error)

	scoped, err := svc.Dashboard(context.Background(), "op-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), scoped.Routers)
	require.Equal(t, int64(3), scoped.UnusedVouchers)

	global, err := svc.Dashboard(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, int64(2), global.Routers)
}
