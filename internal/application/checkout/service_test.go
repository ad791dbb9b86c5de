package checkout_test

import (
	"context"
	"sync"
	"testing"

	appcheckout "github.com/arzanshop/checkout/internal/application/checkout"
	appwallet "github.com/arzanshop/checkout/internal/application/wallet"
	domorder "github.com/arzanshop/checkout/internal/domain/order"
	domsession "github.com/arzanshop/checkout/internal/domain/session"
	domwallet "github.com/arzanshop/checkout/internal/domain/wallet"
	"github.com/arzanshop/checkout/internal/infrastructure/id"
	"github.com/arzanshop/checkout/internal/infrastructure/memory"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []appcheckout.Event
}

func (n *captureNotifier) Notify(_ context.Context, e appcheckout.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *captureNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.EventName()
	}
	return out
}

type fixture struct {
	orders   *memory.OrderRepository
	users    *memory.UserRepository
	sessions *memory.SessionRepository
	notifier *captureNotifier
	svc      *appcheckout.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	orders := memory.NewOrderRepository()
	users := memory.NewUserRepository()
	sessions := memory.NewSessionRepository()
	validator := memory.NewDiscountValidator(orders, memory.DiscountCode{
		Code: "SAVE10", Title: "Ten percent off", Amount: 5000, MaxUses: 100,
	})
	notifier := &captureNotifier{}
	ledger := appwallet.NewLedger(users, id.NewUUIDGenerator())

	svc := appcheckout.NewService(
		orders, sessions, users, ledger, validator,
		users, orders, notifier, appcheckout.Metrics{},
	)
	return &fixture{orders: orders, users: users, sessions: sessions, notifier: notifier, svc: svc}
}

func (f *fixture) seedUser(t *testing.T, userID, balance int64) {
	t.Helper()
	require.NoError(t, f.users.PutAccount(&domwallet.Account{
		UserID: userID, Balance: balance, ContactVerified: true,
	}))
}

func (f *fixture) seedOrder(t *testing.T, orderID, userID int64, category string, amount int64) {
	t.Helper()
	o, err := domorder.New(orderID, userID, category, "plus-1m", amount)
	require.NoError(t, err)
	require.NoError(t, f.orders.Insert(context.Background(), o))
}

func (f *fixture) declineDiscount(t *testing.T, userID, orderID int64, method domsession.Method) *appcheckout.Result {
	t.Helper()
	ctx := context.Background()

	res, err := f.svc.SelectMethod(ctx, userID, orderID, method)
	require.NoError(t, err)
	require.Equal(t, appcheckout.MsgDiscountPrompt, res.MessageKey)

	res, err = f.svc.AnswerDiscountPrompt(ctx, userID, orderID, false)
	require.NoError(t, err)
	return res
}

func (f *fixture) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	a, err := f.users.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	return a.Balance
}

func (f *fixture) order(t *testing.T, orderID int64) *domorder.Order {
	t.Helper()
	o, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	return o
}

func TestWalletPaymentHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1001, 150000)
	f.seedOrder(t, 42, 1001, domorder.CategorySubscription, 100000)

	res := f.declineDiscount(t, 1001, 42, domsession.MethodWallet)
	require.Equal(t, domsession.StageWalletConfirm, res.Stage)
	require.Equal(t, appcheckout.MsgWalletConfirm, res.MessageKey)

	res, err := f.svc.ConfirmWallet(ctx, 1001, 42)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusInProgress, res.Status)

	require.Equal(t, int64(50000), f.balance(t, 1001))

	o := f.order(t, 42)
	require.Equal(t, domorder.StatusInProgress, o.Status)
	require.Equal(t, domorder.PaymentWallet, o.PaymentType)
	require.Equal(t, int64(100000), o.WalletUsed)

	entries, err := f.users.Transactions(ctx, 1001)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domwallet.TxDebit, entries[0].Kind)
	require.Equal(t, int64(100000), entries[0].Amount)
	require.Equal(t, int64(42), entries[0].OrderID)

	require.Equal(t, []string{"order.wallet_paid"}, f.notifier.names())
}

func TestWalletConfirmReplayRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1001, 150000)
	f.seedOrder(t, 42, 1001, domorder.CategorySubscription, 100000)

	f.declineDiscount(t, 1001, 42, domsession.MethodWallet)
	_, err := f.svc.ConfirmWallet(ctx, 1001, 42)
	require.NoError(t, err)

	// The session was cleared at commit; a duplicate confirm has no flow to
	// resume and must not debit a second time.
	_, err = f.svc.ConfirmWallet(ctx, 1001, 42)
	require.ErrorIs(t, err, domsession.ErrMismatch)

	require.Equal(t, int64(50000), f.balance(t, 1001))
	entries, err := f.users.Transactions(ctx, 1001)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWalletInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1001, 40000)
	f.seedOrder(t, 42, 1001, domorder.CategorySubscription, 50000)

	res, err := f.svc.SelectMethod(ctx, 1001, 42, domsession.MethodWallet)
	require.NoError(t, err)
	require.Equal(t, appcheckout.MsgDiscountPrompt, res.MessageKey)

	_, err = f.svc.AnswerDiscountPrompt(ctx, 1001, 42, false)
	require.ErrorIs(t, err, domwallet.ErrInsufficientFunds)

	require.Equal(t, int64(40000), f.balance(t, 1001))
	entries, err := f.users.Transactions(ctx, 1001)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Equal(t, domorder.StatusAwaitingPayment, f.order(t, 42).Status)
}

func TestCardPaymentWithDiscountAndReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 7, 0)
	f.seedOrder(t, 7, 7, "vpn", 50000)

	res, err := f.svc.SelectMethod(ctx, 7, 7, domsession.MethodCard)
	require.NoError(t, err)
	require.Equal(t, domsession.StageDiscountPrompt, res.Stage)

	res, err = f.svc.AnswerDiscountPrompt(ctx, 7, 7, true)
	require.NoError(t, err)
	require.Equal(t, domsession.StageDiscountCode, res.Stage)

	res, err = f.svc.SubmitCode(ctx, 7, 7, "  SAVE10  ")
	require.NoError(t, err)
	require.Equal(t, appcheckout.MsgDiscountCodeStaged, res.MessageKey)

	res, err = f.svc.ApplyCode(ctx, 7, 7)
	require.NoError(t, err)
	require.Equal(t, appcheckout.MsgDiscountApplied, res.MessageKey)
	require.NotNil(t, res.Applied)
	require.Equal(t, int64(5000), res.Applied.DiscountAmount)
	require.Equal(t, int64(45000), res.Applied.AmountTotal)
	// The card flow resumed right after the discount landed.
	require.Equal(t, domsession.StageReceiptCollect, res.Stage)

	o := f.order(t, 7)
	require.Equal(t, "SAVE10", o.DiscountCode)
	require.Equal(t, int64(45000), o.AmountTotal)

	// A second application against the same order is refused.
	_, err = f.svc.ApplyCode(ctx, 7, 7)
	require.ErrorIs(t, err, domorder.ErrDiscountApplied)

	res, err = f.svc.SubmitReceipt(ctx, 7, 7, appcheckout.ReceiptInput{PhotoFileID: "photo-123"})
	require.NoError(t, err)
	require.Equal(t, domsession.StageReceiptComment, res.Stage)

	res, err = f.svc.SetComment(ctx, 7, 7, "ok")
	require.NoError(t, err)
	require.Equal(t, domsession.StageReceiptPreview, res.Stage)

	res, err = f.svc.ConfirmReceipt(ctx, 7, 7)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusPendingConfirm, res.Status)

	o = f.order(t, 7)
	require.Equal(t, domorder.StatusPendingConfirm, o.Status)
	require.Equal(t, domorder.PaymentCard, o.PaymentType)
	require.Equal(t, domorder.ReceiptPhoto, o.ReceiptKind)
	require.Equal(t, "photo-123", o.ReceiptFileID)
	require.Equal(t, "ok", o.CustomerComment)

	require.Equal(t, []string{"order.receipt_submitted"}, f.notifier.names())
}

func TestReceiptRequiresExactlyOneArtifact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 7, 0)
	f.seedOrder(t, 7, 7, "vpn", 50000)

	f.declineDiscount(t, 7, 7, domsession.MethodCard)

	_, err := f.svc.SubmitReceipt(ctx, 7, 7, appcheckout.ReceiptInput{})
	require.ErrorIs(t, err, appcheckout.ErrInvalidReceipt)

	_, err = f.svc.SubmitReceipt(ctx, 7, 7, appcheckout.ReceiptInput{
		PhotoFileID: "p", DocumentFileID: "d",
	})
	require.ErrorIs(t, err, appcheckout.ErrInvalidReceipt)
}

func TestNoCommentSentinelNormalizesToEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 7, 0)
	f.seedOrder(t, 7, 7, "vpn", 50000)

	f.declineDiscount(t, 7, 7, domsession.MethodCard)

	_, err := f.svc.SubmitReceipt(ctx, 7, 7, appcheckout.ReceiptInput{Text: "ref 99881"})
	require.NoError(t, err)

	res, err := f.svc.SetComment(ctx, 7, 7, "ندارم")
	require.NoError(t, err)
	require.Equal(t, domsession.StageReceiptPreview, res.Stage)

	_, err = f.svc.ConfirmReceipt(ctx, 7, 7)
	require.NoError(t, err)
	require.Empty(t, f.order(t, 7).CustomerComment)
}

func TestEditCommentReopensStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 7, 0)
	f.seedOrder(t, 7, 7, "vpn", 50000)

	f.declineDiscount(t, 7, 7, domsession.MethodCard)
	_, err := f.svc.SubmitReceipt(ctx, 7, 7, appcheckout.ReceiptInput{Text: "ref 1"})
	require.NoError(t, err)
	_, err = f.svc.SetComment(ctx, 7, 7, "typo comment")
	require.NoError(t, err)

	res, err := f.svc.EditComment(ctx, 7, 7)
	require.NoError(t, err)
	require.Equal(t, domsession.StageReceiptComment, res.Stage)

	// Editing is only open from a preview.
	_, err = f.svc.EditComment(ctx, 7, 7)
	require.ErrorIs(t, err, domsession.ErrMismatch)

	_, err = f.svc.SetComment(ctx, 7, 7, "fixed comment")
	require.NoError(t, err)
	_, err = f.svc.ConfirmReceipt(ctx, 7, 7)
	require.NoError(t, err)
	require.Equal(t, "fixed comment", f.order(t, 7).CustomerComment)
}

func TestMixedReserveThenCancelRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 9, 30000)
	f.seedOrder(t, 9, 9, "vpn", 80000)

	res := f.declineDiscount(t, 9, 9, domsession.MethodMixed)
	require.Equal(t, domsession.StageMixedAmount, res.Stage)

	res, err := f.svc.SubmitMixedAmount(ctx, 9, 9, 30000)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusAwaitingPayment, res.Status)
	require.Equal(t, domsession.StageReceiptCollect, res.Stage)

	require.Zero(t, f.balance(t, 9))
	o := f.order(t, 9)
	require.Equal(t, int64(30000), o.WalletReserved)
	require.Equal(t, domorder.PaymentMixed, o.PaymentType)
	require.Equal(t, domorder.StatusAwaitingPayment, o.Status)

	res, err = f.svc.Cancel(ctx, 9, 9)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusCanceled, res.Status)

	require.Equal(t, int64(30000), f.balance(t, 9))
	o = f.order(t, 9)
	require.Equal(t, domorder.StatusCanceled, o.Status)
	require.Zero(t, o.WalletReserved)

	entries, err := f.users.Transactions(ctx, 9)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, domwallet.TxReserve, entries[0].Kind)
	require.Equal(t, domwallet.TxRefund, entries[1].Kind)

	require.Equal(t, []string{"order.canceled"}, f.notifier.names())
}

func TestMixedAmountBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 9, 100000)
	f.seedOrder(t, 9, 9, "vpn", 80000)

	f.declineDiscount(t, 9, 9, domsession.MethodMixed)

	_, err := f.svc.SubmitMixedAmount(ctx, 9, 9, 0)
	require.ErrorIs(t, err, domorder.ErrInvalidAmount)

	_, err = f.svc.SubmitMixedAmount(ctx, 9, 9, 90000)
	require.ErrorIs(t, err, domorder.ErrAmountExceeded)

	entries, err := f.users.Transactions(ctx, 9)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFirstPlanHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 5, 0)
	f.seedOrder(t, 5, 5, domorder.CategorySubscription, 100000)

	res, err := f.svc.SelectMethod(ctx, 5, 5, domsession.MethodPlan)
	require.NoError(t, err)
	require.Equal(t, domsession.StagePlanComment, res.Stage)

	res, err = f.svc.SetComment(ctx, 5, 5, "need the plus plan")
	require.NoError(t, err)
	require.Equal(t, domsession.StagePlanPreview, res.Stage)

	res, err = f.svc.ConfirmPlan(ctx, 5, 5)
	require.NoError(t, err)
	require.Equal(t, domorder.StatusPendingPlan, res.Status)

	o := f.order(t, 5)
	require.Equal(t, domorder.StatusPendingPlan, o.Status)
	require.Equal(t, domorder.PaymentFirstPlan, o.PaymentType)
	require.Equal(t, "need the plus plan", o.CustomerComment)

	require.Equal(t, []string{"order.plan_requested"}, f.notifier.names())
}

func TestFirstPlanIneligibleCategory(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, 5, 0)
	f.seedOrder(t, 5, 5, "vpn", 100000)

	_, err := f.svc.SelectMethod(context.Background(), 5, 5, domsession.MethodPlan)
	require.ErrorIs(t, err, appcheckout.ErrPlanNotEligible)
}

func TestFirstPlanAlreadyUsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 5, 0)
	f.seedOrder(t, 5, 5, domorder.CategorySubscription, 100000)

	delivered, err := domorder.New(6, 5, domorder.CategorySubscription, "plus-1m", 100000)
	require.NoError(t, err)
	delivered.Status = domorder.StatusDelivered
	require.NoError(t, f.orders.Insert(ctx, delivered))

	_, err = f.svc.SelectMethod(ctx, 5, 5, domsession.MethodPlan)
	require.ErrorIs(t, err, appcheckout.ErrPlanAlreadyUsed)
}

func TestContactVerificationGate(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, 3, 3, "vpn", 10000) // no account seeded: unverified

	_, err := f.svc.SelectMethod(context.Background(), 3, 3, domsession.MethodCard)
	require.ErrorIs(t, err, appcheckout.ErrContactUnverified)
}

func TestOwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, 3, 0)
	f.seedOrder(t, 3, 99, "vpn", 10000)

	_, err := f.svc.SelectMethod(context.Background(), 3, 3, domsession.MethodCard)
	require.ErrorIs(t, err, domorder.ErrNotOwner)
}

func TestDiscountPendingBlocksMethod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 7, 0)
	f.seedOrder(t, 7, 7, "vpn", 50000)

	_, err := f.svc.SelectMethod(ctx, 7, 7, domsession.MethodCard)
	require.NoError(t, err)

	// Same method again while the prompt is open: still blocked.
	_, err = f.svc.SelectMethod(ctx, 7, 7, domsession.MethodCard)
	require.ErrorIs(t, err, appcheckout.ErrDiscountPending)

	// Opening code entry keeps every method blocked until resolved.
	_, err = f.svc.AnswerDiscountPrompt(ctx, 7, 7, true)
	require.NoError(t, err)
	_, err = f.svc.SelectMethod(ctx, 7, 7, domsession.MethodWallet)
	require.ErrorIs(t, err, appcheckout.ErrDiscountPending)
}

func TestCancelDiscountEntryReturnsToPrompt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 7, 0)
	f.seedOrder(t, 7, 7, "vpn", 50000)

	_, err := f.svc.SelectMethod(ctx, 7, 7, domsession.MethodCard)
	require.NoError(t, err)
	_, err = f.svc.AnswerDiscountPrompt(ctx, 7, 7, true)
	require.NoError(t, err)
	_, err = f.svc.SubmitCode(ctx, 7, 7, "WRONG")
	require.NoError(t, err)

	res, err := f.svc.CancelDiscountEntry(ctx, 7, 7)
	require.NoError(t, err)
	require.Equal(t, domsession.StageDiscountPrompt, res.Stage)
	require.Equal(t, domsession.DiscountPrompt, res.Discount)

	// Apply now has nothing staged.
	_, err = f.svc.AnswerDiscountPrompt(ctx, 7, 7, true)
	require.NoError(t, err)
	_, err = f.svc.ApplyCode(ctx, 7, 7)
	require.ErrorIs(t, err, appcheckout.ErrNoStagedCode)
}

func TestInvalidCodeRetainsStagedCodeForRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 7, 0)
	f.seedOrder(t, 7, 7, "vpn", 50000)

	_, err := f.svc.SelectMethod(ctx, 7, 7, domsession.MethodCard)
	require.NoError(t, err)
	_, err = f.svc.AnswerDiscountPrompt(ctx, 7, 7, true)
	require.NoError(t, err)
	_, err = f.svc.SubmitCode(ctx, 7, 7, "NOPE")
	require.NoError(t, err)

	_, err = f.svc.ApplyCode(ctx, 7, 7)
	require.Error(t, err)
	require.Empty(t, f.order(t, 7).DiscountCode)

	// Retry with a valid code after re-submitting.
	_, err = f.svc.SubmitCode(ctx, 7, 7, "SAVE10")
	require.NoError(t, err)
	res, err := f.svc.ApplyCode(ctx, 7, 7)
	require.NoError(t, err)
	require.Equal(t, int64(45000), res.Applied.AmountTotal)
}

func TestCancelRejectedAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1001, 150000)
	f.seedOrder(t, 42, 1001, domorder.CategorySubscription, 100000)

	f.declineDiscount(t, 1001, 42, domsession.MethodWallet)
	_, err := f.svc.ConfirmWallet(ctx, 1001, 42)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, 1001, 42)
	require.ErrorIs(t, err, domorder.ErrInvalidStatus)
	require.Equal(t, domorder.StatusInProgress, f.order(t, 42).Status)
}

func TestAdvanceStatusFollowsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 7, 0)
	f.seedOrder(t, 7, 7, "vpn", 50000)

	f.declineDiscount(t, 7, 7, domsession.MethodCard)
	_, err := f.svc.SubmitReceipt(ctx, 7, 7, appcheckout.ReceiptInput{Text: "ref 1"})
	require.NoError(t, err)
	_, err = f.svc.SetComment(ctx, 7, 7, "ok")
	require.NoError(t, err)
	_, err = f.svc.ConfirmReceipt(ctx, 7, 7)
	require.NoError(t, err)

	for _, to := range []domorder.Status{
		domorder.StatusApproved,
		domorder.StatusInProgress,
		domorder.StatusReadyToDeliver,
		domorder.StatusDelivered,
		domorder.StatusCompleted,
	} {
		res, err := f.svc.AdvanceStatus(ctx, 7, to)
		require.NoError(t, err)
		require.Equal(t, to, res.Status)
	}

	// COMPLETED is terminal.
	_, err = f.svc.AdvanceStatus(ctx, 7, domorder.StatusInProgress)
	require.ErrorIs(t, err, domorder.ErrInvalidStatus)
}

func TestCheckoutSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 7, 0)
	f.seedOrder(t, 7, 7, domorder.CategorySubscription, 50000)

	sum, err := f.svc.CheckoutSummary(ctx, 7, 7)
	require.NoError(t, err)
	require.Equal(t, int64(50000), sum.AmountTotal)
	require.Zero(t, sum.DiscountAmount)
	require.True(t, sum.PlanEligible)

	_, err = f.svc.CheckoutSummary(ctx, 8, 7)
	require.ErrorIs(t, err, domorder.ErrNotOwner)
}
