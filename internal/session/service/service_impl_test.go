package service_test

import (
	"context"
	"testing"
	"time"

	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	"github.com/smallbiznis/lounge/internal/session/domain"
	settlementdomain "github.com/smallbiznis/lounge/internal/settlement/domain"
	"github.com/smallbiznis/lounge/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOccupiesDevice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceID, standardID, _ := h.seedConsole(t, "PS5-1")

	bill := h.start(t, deviceID, standardID)
	assert.Equal(t, domain.StatusActive, bill.Status)
	assert.Equal(t, standardID, bill.RateProfileID)
	assert.Equal(t, "console-standard", bill.RateProfileCode)
	require.Len(t, bill.Segments, 1)
	assert.Nil(t, bill.Segments[0].EndedAt)
	assert.Zero(t, bill.Total)
	assert.Equal(t, devicedomain.StatusOccupied, h.deviceStatus(t, deviceID))

	_, err := h.sessions.Start(ctx, domain.StartRequest{DeviceID: deviceID, RateProfileID: standardID})
	assert.ErrorIs(t, err, devicedomain.ErrDeviceNotAvailable)

	_, err = h.sessions.Start(ctx, domain.StartRequest{DeviceID: "123"})
	assert.ErrorIs(t, err, devicedomain.ErrNotFound)

	active, err := h.sessions.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, bill.SessionID, active[0].SessionID)
}

func TestStartWithoutProfileUsesCategoryDefault(t *testing.T) {
	h := newHarness(t)
	deviceID, _, premiumID := h.seedConsole(t, "PS5-1")

	bill := h.start(t, deviceID, "")
	assert.Equal(t, premiumID, bill.RateProfileID)
	assert.False(t, bill.ProfileFallback)
}

func TestCurrentBillRecomputesOnRead(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceID, standardID, _ := h.seedConsole(t, "PS5-1")
	cola := h.seedProduct(t, "COLA", 40, 10)

	started := h.start(t, deviceID, standardID)

	h.clock.Advance(20 * time.Minute)
	bill, err := h.sessions.AddItem(ctx, domain.AddItemRequest{SessionID: started.SessionID, ProductID: cola, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(100), bill.TimeCharge)
	assert.Equal(t, int64(80), bill.ItemsTotal)
	assert.Equal(t, int64(180), bill.Total)
	require.Len(t, bill.Items, 1)

	h.clock.Advance(65 * time.Minute)
	bill, err = h.sessions.CurrentBill(ctx, started.SessionID)
	require.NoError(t, err)
	assert.InDelta(t, 85.0, bill.ElapsedMinutes, 1e-6)
	// 150 for the top tier plus floor((85-60)/15)+1 = 2 overflow blocks
	assert.Equal(t, int64(250), bill.TimeCharge)
	assert.Equal(t, int64(330), bill.Total)
	assert.Equal(t, int64(330), bill.BalanceDue)

	bill, err = h.sessions.RemoveItem(ctx, domain.RemoveItemRequest{SessionID: started.SessionID, ProductID: cola})
	require.NoError(t, err)
	assert.Equal(t, int64(40), bill.ItemsTotal)
}

func TestSwitchProfileBlendsSegments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceID, standardID, premiumID := h.seedConsole(t, "PS5-1")

	started := h.start(t, deviceID, standardID)

	h.clock.Advance(30 * time.Minute)
	bill, err := h.sessions.SwitchProfile(ctx, domain.SwitchProfileRequest{SessionID: started.SessionID, RateProfileID: premiumID})
	require.NoError(t, err)
	assert.Equal(t, premiumID, bill.RateProfileID)
	require.Len(t, bill.Segments, 2)

	// same profile again is a no-op
	bill, err = h.sessions.SwitchProfile(ctx, domain.SwitchProfileRequest{SessionID: started.SessionID, RateProfileID: premiumID})
	require.NoError(t, err)
	require.Len(t, bill.Segments, 2)

	open := 0
	for _, seg := range bill.Segments {
		if seg.EndedAt == nil {
			open++
		}
	}
	assert.Equal(t, 1, open)

	h.clock.Advance(30 * time.Minute)
	bill, err = h.sessions.CurrentBill(ctx, started.SessionID)
	require.NoError(t, err)
	// half of standard at 60 minutes (150) and half of premium at 60 minutes (300)
	assert.Equal(t, int64(225), bill.TimeCharge)
}

func TestSwitchProfileRejectsOtherCategory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceID, standardID, _ := h.seedConsole(t, "PS5-1")
	billiard, err := h.rates.Upsert(ctx, ratecatalogUpsertBilliard())
	require.NoError(t, err)

	started := h.start(t, deviceID, standardID)
	_, err = h.sessions.SwitchProfile(ctx, domain.SwitchProfileRequest{SessionID: started.SessionID, RateProfileID: billiard.ID})
	assert.ErrorIs(t, err, domain.ErrProfileCategoryMismatch)
}

func TestCheckoutCashCollectsBalanceOnTopOfDeposits(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceID, standardID, _ := h.seedConsole(t, "PS5-1")
	cola := h.seedProduct(t, "COLA", 40, 10)

	started := h.start(t, deviceID, standardID)
	_, err := h.sessions.AddItem(ctx, domain.AddItemRequest{SessionID: started.SessionID, ProductID: cola, Quantity: 2})
	require.NoError(t, err)
	_, err = h.sessions.RecordPayment(ctx, domain.RecordPaymentRequest{SessionID: started.SessionID, Amount: 100, Method: "UPI"})
	require.NoError(t, err)

	h.clock.Advance(45 * time.Minute)
	bill, err := h.sessions.Checkout(ctx, domain.CheckoutRequest{SessionID: started.SessionID, PaymentMethod: "cash"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, bill.Status)
	require.NotNil(t, bill.PaymentMethod)
	assert.Equal(t, domain.PaymentMethodCash, *bill.PaymentMethod)
	assert.Equal(t, int64(150), bill.TimeCharge)
	assert.Equal(t, int64(80), bill.ItemsTotal)
	assert.Equal(t, int64(230), bill.Total)
	assert.Equal(t, int64(130), bill.CashAmount)
	assert.Equal(t, int64(100), bill.UPIAmount)
	assert.Equal(t, int64(230), bill.TotalPaid)
	assert.Zero(t, bill.BalanceDue)
	require.NotNil(t, bill.EndedAt)
	for _, seg := range bill.Segments {
		assert.NotNil(t, seg.EndedAt)
	}
	assert.Equal(t, devicedomain.StatusAvailable, h.deviceStatus(t, deviceID))

	// frozen: time passing does not change the settled bill
	h.clock.Advance(2 * time.Hour)
	again, err := h.sessions.CurrentBill(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(230), again.Total)
	assert.Equal(t, int64(150), again.TimeCharge)
}

func TestCheckoutSplit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceID, standardID, _ := h.seedConsole(t, "PS5-1")

	started := h.start(t, deviceID, standardID)
	h.clock.Advance(45 * time.Minute)

	_, err := h.sessions.Checkout(ctx, domain.CheckoutRequest{
		SessionID:     started.SessionID,
		PaymentMethod: "SPLIT",
		CashPortion:   int64Ptr(200),
	})
	assert.ErrorIs(t, err, settlementdomain.ErrInvalidCashPortion)
	assert.Equal(t, devicedomain.StatusOccupied, h.deviceStatus(t, deviceID))

	bill, err := h.sessions.Checkout(ctx, domain.CheckoutRequest{
		SessionID:     started.SessionID,
		PaymentMethod: "SPLIT",
		CashPortion:   int64Ptr(50),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), bill.CashAmount)
	assert.Equal(t, int64(100), bill.UPIAmount)
}

func TestCheckoutOverrideAndValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceID, standardID, _ := h.seedConsole(t, "PS5-1")

	started := h.start(t, deviceID, standardID)
	h.clock.Advance(10 * time.Minute)

	_, err := h.sessions.Checkout(ctx, domain.CheckoutRequest{SessionID: started.SessionID})
	assert.ErrorIs(t, err, domain.ErrMissingPaymentMethod)

	_, err = h.sessions.Checkout(ctx, domain.CheckoutRequest{SessionID: started.SessionID, PaymentMethod: "CARD"})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)

	_, err = h.sessions.Checkout(ctx, domain.CheckoutRequest{SessionID: started.SessionID, PaymentMethod: "CASH", FinalAmountOverride: int64Ptr(0)})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	bill, err := h.sessions.Checkout(ctx, domain.CheckoutRequest{SessionID: started.SessionID, PaymentMethod: "UPI", FinalAmountOverride: int64Ptr(60)})
	require.NoError(t, err)
	assert.True(t, bill.AmountOverridden)
	assert.Equal(t, int64(60), bill.Total)
	assert.Equal(t, int64(100), bill.TimeCharge)
	assert.Equal(t, int64(60), bill.UPIAmount)

	_, err = h.sessions.Checkout(ctx, domain.CheckoutRequest{SessionID: started.SessionID, PaymentMethod: "CASH"})
	assert.ErrorIs(t, err, domain.ErrAlreadyCompleted)

	_, err = h.sessions.RecordPayment(ctx, domain.RecordPaymentRequest{SessionID: started.SessionID, Amount: 10, Method: "CASH"})
	assert.ErrorIs(t, err, domain.ErrAlreadyCompleted)
}

func TestCheckoutWithoutMethodWhenPrepaid(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceID, standardID, _ := h.seedConsole(t, "PS5-1")

	started := h.start(t, deviceID, standardID)
	_, err := h.sessions.RecordPayment(ctx, domain.RecordPaymentRequest{SessionID: started.SessionID, Amount: 150, Method: "UPI"})
	require.NoError(t, err)

	h.clock.Advance(45 * time.Minute)
	bill, err := h.sessions.Checkout(ctx, domain.CheckoutRequest{SessionID: started.SessionID})
	require.NoError(t, err)
	require.NotNil(t, bill.PaymentMethod)
	assert.Equal(t, domain.PaymentMethodUPI, *bill.PaymentMethod)
	assert.Equal(t, int64(150), bill.UPIAmount)
	assert.Zero(t, bill.CashAmount)
}

func TestPaymentEditsAreScopedToSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceA, standardID, _ := h.seedConsole(t, "PS5-1")
	deviceB, err := h.devices.Create(ctx, devicedomain.CreateRequest{Name: "PS5-2", Category: "CONSOLE"})
	require.NoError(t, err)

	a := h.start(t, deviceA, standardID)
	b := h.start(t, deviceB.ID, standardID)

	bill, err := h.sessions.RecordPayment(ctx, domain.RecordPaymentRequest{SessionID: a.SessionID, Amount: 100, Method: "CASH"})
	require.NoError(t, err)
	require.Len(t, bill.Payments, 1)
	paymentID := bill.Payments[0].ID

	_, err = h.sessions.EditPayment(ctx, domain.EditPaymentRequest{SessionID: b.SessionID, PaymentID: paymentID, Amount: 10, Method: "CASH"})
	assert.ErrorIs(t, err, domain.ErrPaymentNotInSession)

	bill, err = h.sessions.EditPayment(ctx, domain.EditPaymentRequest{SessionID: a.SessionID, PaymentID: paymentID, Amount: 70, Method: "UPI"})
	require.NoError(t, err)
	assert.Equal(t, int64(70), bill.TotalPaid)

	bill, err = h.sessions.DeletePayment(ctx, domain.DeletePaymentRequest{SessionID: a.SessionID, PaymentID: paymentID})
	require.NoError(t, err)
	assert.Zero(t, bill.TotalPaid)
	assert.Empty(t, bill.Payments)
}

func TestCarryForwardTransfersOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceA, standardID, _ := h.seedConsole(t, "PS5-1")
	deviceB, err := h.devices.Create(ctx, devicedomain.CreateRequest{Name: "PS5-2", Category: "CONSOLE"})
	require.NoError(t, err)

	source := h.start(t, deviceA, standardID)
	_, err = h.sessions.RecordPayment(ctx, domain.RecordPaymentRequest{SessionID: source.SessionID, Amount: 50, Method: "CASH"})
	require.NoError(t, err)

	h.clock.Advance(45 * time.Minute)
	closed, err := h.sessions.Checkout(ctx, domain.CheckoutRequest{SessionID: source.SessionID, PaymentMethod: "CARRY_FORWARD"})
	require.NoError(t, err)
	assert.Zero(t, closed.CashAmount)
	assert.Zero(t, closed.UPIAmount)
	assert.Equal(t, int64(50), closed.TotalPaid)
	assert.Equal(t, int64(100), closed.BalanceDue)
	assert.Equal(t, devicedomain.StatusAvailable, h.deviceStatus(t, deviceA))

	candidates, err := h.settlements.ListTransferCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, source.SessionID, candidates[0].SessionID)
	assert.Equal(t, int64(100), candidates[0].CarryAmount)

	next, err := h.sessions.Start(ctx, domain.StartRequest{
		DeviceID:          deviceA,
		RateProfileID:     standardID,
		TransferSessionID: &source.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), next.TransferAmount)
	require.NotNil(t, next.TransferSessionID)
	assert.Equal(t, int64(100), next.Total)

	h.clock.Advance(10 * time.Minute)
	bill, err := h.sessions.CurrentBill(ctx, next.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), bill.Total)

	_, err = h.sessions.Start(ctx, domain.StartRequest{
		DeviceID:          deviceB.ID,
		RateProfileID:     standardID,
		TransferSessionID: &source.SessionID,
	})
	assert.ErrorIs(t, err, settlementdomain.ErrBillTransferAlreadyUsed)
	assert.Equal(t, devicedomain.StatusAvailable, h.deviceStatus(t, deviceB.ID))

	candidates, err = h.settlements.ListTransferCandidates(ctx)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// an active session is never a transfer source
	_, err = h.sessions.Start(ctx, domain.StartRequest{
		DeviceID:          deviceB.ID,
		RateProfileID:     standardID,
		TransferSessionID: &next.SessionID,
	})
	assert.ErrorIs(t, err, settlementdomain.ErrInvalidTransferSource)
}

func TestBrokenProfileFallsBackAndIsPersisted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceID, standardID, premiumID := h.seedConsole(t, "PS5-1")

	started := h.start(t, deviceID, standardID)

	standard := mustParse(t, standardID)
	require.NoError(t, h.db.Exec(`DELETE FROM pricing_tiers WHERE rate_profile_id = ?`, standard).Error)
	require.NoError(t, h.db.Exec(`DELETE FROM rate_profiles WHERE id = ?`, standard).Error)

	h.clock.Advance(45 * time.Minute)
	bill, err := h.sessions.CurrentBill(ctx, started.SessionID)
	require.NoError(t, err)
	assert.True(t, bill.ProfileFallback)
	assert.Equal(t, premiumID, bill.RateProfileID)
	assert.Equal(t, "console-premium", bill.RateProfileCode)
	assert.Equal(t, int64(300), bill.TimeCharge)

	stored, err := h.sessions.Get(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, premiumID, stored.RateProfileID)
}

func TestListHistoryPages(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	deviceID, standardID, _ := h.seedConsole(t, "PS5-1")

	var ids []string
	for i := 0; i < 3; i++ {
		s := h.start(t, deviceID, standardID)
		h.clock.Advance(20 * time.Minute)
		_, err := h.sessions.Checkout(ctx, domain.CheckoutRequest{SessionID: s.SessionID, PaymentMethod: "CASH"})
		require.NoError(t, err)
		ids = append(ids, s.SessionID)
		h.clock.Advance(time.Minute)
	}

	page, err := h.sessions.ListHistory(ctx, domain.HistoryRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, page.Sessions, 2)
	assert.True(t, page.PageInfo.HasMore)
	assert.Equal(t, ids[2], page.Sessions[0].ID)
	assert.Equal(t, ids[1], page.Sessions[1].ID)

	page, err = h.sessions.ListHistory(ctx, domain.HistoryRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: page.PageInfo.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, page.Sessions, 1)
	assert.False(t, page.PageInfo.HasMore)
	assert.Equal(t, ids[0], page.Sessions[0].ID)

	_, err = h.sessions.ListHistory(ctx, domain.HistoryRequest{From: t0.Add(time.Hour), To: t0})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = h.sessions.ListHistory(ctx, domain.HistoryRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}
