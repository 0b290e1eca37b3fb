package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/example/artshop/pkg/cart"
	"github.com/example/artshop/pkg/models"
	"github.com/example/artshop/pkg/notify"
	"github.com/example/artshop/pkg/payment"
	"github.com/example/artshop/pkg/payment/paymenttest"
	"github.com/example/artshop/pkg/repository"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const webhookSecret = "whsec_test"

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Confirmation
}

func (n *recordingNotifier) OrderConfirmed(_ context.Context, c notify.Confirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, c)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type auditEntry struct {
	action, entityID string
	data             map[string]interface{}
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAudit) Record(_ context.Context, action, entityID string, data map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{action, entityID, data})
	return nil
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.entries {
		out = append(out, e.action)
	}
	return out
}

type memoryCarts struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

func newMemoryCarts() *memoryCarts {
	return &memoryCarts{carts: map[string]cart.Cart{}}
}

func (m *memoryCarts) Load(_ context.Context, sid string) (cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[sid]; ok {
		return c, nil
	}
	return cart.Cart{}, nil
}

func (m *memoryCarts) Save(_ context.Context, sid string, c cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sid] = c
	return nil
}

func (m *memoryCarts) Clear(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sid)
	return nil
}

type fixture struct {
	db        *gorm.DB
	catalog   *repository.CatalogRepository
	orders    *repository.OrderRepository
	library   *repository.LibraryRepository
	provider  *paymenttest.Provider
	carts     *memoryCarts
	notifier  *recordingNotifier
	audit     *recordingAudit
	initiator *Initiator
	recon     *Reconciler
}

func newFixture(t *testing.T) *fixture {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	f := &fixture{
		db:       db,
		catalog:  repository.NewCatalogRepository(db),
		orders:   repository.NewOrderRepository(db),
		library:  repository.NewLibraryRepository(db),
		provider: paymenttest.NewProvider(),
		carts:    newMemoryCarts(),
		notifier: &recordingNotifier{},
		audit:    &recordingAudit{},
	}
	f.initiator = NewInitiator(f.catalog, f.orders, f.provider, f.audit, InitiatorConfig{
		Currency:   "eur",
		SuccessURL: "http://shop.test/api/v1/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://shop.test/api/v1/checkout/cancel",
	}, zap.NewNop())
	f.recon = NewReconciler(f.orders, f.provider, payment.NewStripeWebhookVerifier(webhookSecret),
		f.carts, f.notifier, f.audit, nil, zap.NewNop())
	return f
}

func (f *fixture) print(t *testing.T, title, price string) *models.ArtPrint {
	p := &models.ArtPrint{
		Title:       title,
		Description: title + " in ink",
		Image:       "prints/" + strings.ToLower(title) + ".png",
		Price:       decimal.RequireFromString(price),
		IsAvailable: true,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) user(t *testing.T) *models.User {
	u := &models.User{Username: "ana", Email: "ana@example.com"}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) cartWith(t *testing.T, items map[*models.ArtPrint]int) cart.Cart {
	c := cart.Cart{}
	var err error
	for p, qty := range items {
		c, err = cart.Add(c, p, qty)
		require.NoError(t, err)
	}
	return c
}

func (f *fixture) webhook(t *testing.T, sessionID string) (Outcome, error) {
	payload := paymenttest.CheckoutCompletedPayload(sessionID, "buyer@example.com")
	return f.recon.HandleWebhook(context.Background(), payload, paymenttest.SignPayload(payload, webhookSecret))
}

func (f *fixture) order(t *testing.T, sessionID string) *models.Order {
	var o models.Order
	require.NoError(t, f.db.Where("stripe_session_id = ?", sessionID).First(&o).Error)
	return &o
}

func TestStart_CreatesSessionAndPendingOrder(t *testing.T) {
	f := newFixture(t)
	a := f.print(t, "Moon", "10.00")
	b := f.print(t, "Sun", "15.50")
	c := f.cartWith(t, map[*models.ArtPrint]int{a: 2, b: 1})

	started, err := f.initiator.Start(context.Background(), c, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, started.SessionID)
	assert.NotEmpty(t, started.URL)

	require.Len(t, f.provider.Requests, 1)
	req := f.provider.Requests[0]
	assert.Equal(t, "eur", req.Currency)
	assert.Equal(t, "35.50", req.Metadata["cart_total"])
	require.Len(t, req.LineItems, 2)
	assert.Equal(t, payment.LineItem{Name: "Moon", Description: "Moon in ink", UnitAmount: 1000, Quantity: 2}, req.LineItems[0])
	assert.Equal(t, int64(1550), req.LineItems[1].UnitAmount)

	order := f.order(t, started.SessionID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.False(t, order.IsCompleted)
	assert.True(t, decimal.RequireFromString("35.50").Equal(order.TotalAmount))
	assert.Equal(t, []string{repository.AuditOrderCreated}, f.audit.actions())
}

func TestStart_UsesSnapshotPrice(t *testing.T) {
	f := newFixture(t)
	p := f.print(t, "Moon", "10.00")
	c := f.cartWith(t, map[*models.ArtPrint]int{p: 1})

	require.NoError(t, f.db.Model(p).Update("price", decimal.RequireFromString("99.00")).Error)

	_, err := f.initiator.Start(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), f.provider.Requests[0].LineItems[0].UnitAmount)
}

func TestStart_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.initiator.Start(context.Background(), cart.Cart{}, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.provider.Requests)
}

func TestStart_PrunesStaleEntries(t *testing.T) {
	f := newFixture(t)
	p := f.print(t, "Moon", "10.00")
	c := f.cartWith(t, map[*models.ArtPrint]int{p: 1})
	c[999] = cart.Entry{Quantity: 1, Price: decimal.NewFromInt(5), Title: "Gone", Slug: "gone"}

	started, err := f.initiator.Start(context.Background(), c, nil)
	require.NoError(t, err)
	assert.NotContains(t, started.Cart, uint(999))
	assert.Len(t, f.provider.Requests[0].LineItems, 1)
	assert.Equal(t, "10.00", f.provider.Requests[0].Metadata["cart_total"])
}

func TestStart_OnlyStaleEntriesIsEmpty(t *testing.T) {
	f := newFixture(t)
	c := cart.Cart{999: {Quantity: 1, Price: decimal.NewFromInt(5)}}

	_, err := f.initiator.Start(context.Background(), c, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestStart_RejectsPrintWithdrawnAfterAdd(t *testing.T) {
	f := newFixture(t)
	a := f.print(t, "Moon", "10.00")
	b := f.print(t, "Sun", "15.50")
	c := f.cartWith(t, map[*models.ArtPrint]int{a: 1, b: 1})

	require.NoError(t, f.db.Model(b).Update("is_available", false).Error)

	_, err := f.initiator.Start(context.Background(), c, nil)
	assert.ErrorIs(t, err, cart.ErrUnavailableProduct)
	assert.Contains(t, err.Error(), "Sun")
	assert.Empty(t, f.provider.Requests)

	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestStart_ProviderFailure(t *testing.T) {
	f := newFixture(t)
	p := f.print(t, "Moon", "10.00")
	f.provider.Err = fmt.Errorf("%w: timeout", payment.ErrPaymentProvider)

	_, err := f.initiator.Start(context.Background(), f.cartWith(t, map[*models.ArtPrint]int{p: 1}), nil)
	assert.ErrorIs(t, err, payment.ErrPaymentProvider)

	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestStart_TruncatesDescription(t *testing.T) {
	f := newFixture(t)
	p := f.print(t, "Moon", "10.00")
	require.NoError(t, f.db.Model(p).Update("description", strings.Repeat("é", 150)).Error)

	_, err := f.initiator.Start(context.Background(), f.cartWith(t, map[*models.ArtPrint]int{p: 1}), nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 100), f.provider.Requests[0].LineItems[0].Description)
}

func TestConfirmRedirect_Paid(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	p := f.print(t, "Moon", "10.00")
	c := f.cartWith(t, map[*models.ArtPrint]int{p: 2})
	require.NoError(t, f.carts.Save(context.Background(), "browser", c))

	started, err := f.initiator.Start(context.Background(), c, &u.ID)
	require.NoError(t, err)
	f.provider.MarkPaid(started.SessionID, "buyer@example.com")

	outcome, err := f.recon.ConfirmRedirect(context.Background(), started.SessionID, "browser")
	require.NoError(t, err)
	assert.Equal(t, Confirmed, outcome)

	order := f.order(t, started.SessionID)
	assert.True(t, order.IsCompleted)
	assert.Equal(t, models.OrderStatusPaid, order.Status)

	stored, err := f.carts.Load(context.Background(), "browser")
	require.NoError(t, err)
	assert.Empty(t, stored)

	ok, err := f.library.HasEntitlement(context.Background(), u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Equal(t, 1, f.notifier.count())
	sent := f.notifier.sent[0]
	assert.Equal(t, "ana@example.com", sent.Recipient())
	require.Len(t, sent.Items, 1)
	assert.Equal(t, "Moon", sent.Items[0].Title)
	assert.Equal(t, uint(2), sent.Items[0].Quantity)
	assert.Contains(t, f.audit.actions(), repository.AuditOrderConfirmed)
}

func TestConfirmRedirect_Unpaid(t *testing.T) {
	f := newFixture(t)
	p := f.print(t, "Moon", "10.00")
	c := f.cartWith(t, map[*models.ArtPrint]int{p: 1})
	require.NoError(t, f.carts.Save(context.Background(), "browser", c))

	started, err := f.initiator.Start(context.Background(), c, nil)
	require.NoError(t, err)

	outcome, err := f.recon.ConfirmRedirect(context.Background(), started.SessionID, "browser")
	require.NoError(t, err)
	assert.Equal(t, Unpaid, outcome)
	assert.False(t, f.order(t, started.SessionID).IsCompleted)

	stored, _ := f.carts.Load(context.Background(), "browser")
	assert.Len(t, stored, 1)
	assert.Zero(t, f.notifier.count())
}

func TestConfirmRedirect_ProviderFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.recon.ConfirmRedirect(context.Background(), "cs_unknown", "browser")
	assert.ErrorIs(t, err, payment.ErrPaymentProvider)
}

func TestConfirmRedirect_NoOrder(t *testing.T) {
	f := newFixture(t)
	s, err := f.provider.CreateCheckoutSession(context.Background(), payment.SessionRequest{})
	require.NoError(t, err)
	f.provider.MarkPaid(s.ID, "")

	outcome, err := f.recon.ConfirmRedirect(context.Background(), s.ID, "browser")
	require.NoError(t, err)
	assert.Equal(t, NoOrder, outcome)
	assert.Zero(t, f.notifier.count())
}

func TestWebhookThenRedirect(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	p := f.print(t, "Moon", "10.00")
	c := f.cartWith(t, map[*models.ArtPrint]int{p: 1})
	require.NoError(t, f.carts.Save(context.Background(), "browser", c))

	started, err := f.initiator.Start(context.Background(), c, &u.ID)
	require.NoError(t, err)
	f.provider.MarkPaid(started.SessionID, "buyer@example.com")

	outcome, err := f.webhook(t, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, Confirmed, outcome)

	outcome, err = f.recon.ConfirmRedirect(context.Background(), started.SessionID, "browser")
	require.NoError(t, err)
	assert.Equal(t, AlreadyConfirmed, outcome)

	// the redirect did not perform the transition, so the cart survives
	stored, _ := f.carts.Load(context.Background(), "browser")
	assert.Len(t, stored, 1)
	assert.Equal(t, 1, f.notifier.count())
}

func TestWebhook_DuplicateDelivery(t *testing.T) {
	f := newFixture(t)
	p := f.print(t, "Moon", "10.00")
	started, err := f.initiator.Start(context.Background(), f.cartWith(t, map[*models.ArtPrint]int{p: 1}), nil)
	require.NoError(t, err)

	first, err := f.webhook(t, started.SessionID)
	require.NoError(t, err)
	second, err := f.webhook(t, started.SessionID)
	require.NoError(t, err)

	assert.Equal(t, Confirmed, first)
	assert.Equal(t, AlreadyConfirmed, second)
	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, "buyer@example.com", f.notifier.sent[0].Recipient())
}

func TestWebhook_UnknownSession(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.webhook(t, "cs_nobody")
	require.NoError(t, err)
	assert.Equal(t, NoOrder, outcome)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	f := newFixture(t)
	payload := paymenttest.CheckoutCompletedPayload("cs_1", "")

	_, err := f.recon.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, payment.ErrInvalidWebhookSignature)
	assert.Equal(t, []string{repository.AuditWebhookRejected}, f.audit.actions())
}

func TestWebhook_Misconfigured(t *testing.T) {
	f := newFixture(t)
	recon := NewReconciler(f.orders, f.provider, payment.NewStripeWebhookVerifier(""),
		f.carts, f.notifier, f.audit, nil, zap.NewNop())
	payload := paymenttest.CheckoutCompletedPayload("cs_1", "")

	_, err := recon.HandleWebhook(context.Background(), payload, paymenttest.SignPayload(payload, webhookSecret))
	assert.ErrorIs(t, err, payment.ErrWebhookMisconfigured)
	assert.Equal(t, "misconfigured", f.audit.entries[0].data["reason"])
}

func TestWebhook_IgnoredEvent(t *testing.T) {
	f := newFixture(t)
	payload := paymenttest.EventPayload("customer.created")

	outcome, err := f.recon.HandleWebhook(context.Background(), payload, paymenttest.SignPayload(payload, webhookSecret))
	require.NoError(t, err)
	assert.Equal(t, Ignored, outcome)
	assert.Zero(t, f.notifier.count())
}

func TestConcurrentRedirectAndWebhook(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	p := f.print(t, "Moon", "10.00")
	started, err := f.initiator.Start(context.Background(), f.cartWith(t, map[*models.ArtPrint]int{p: 1}), &u.ID)
	require.NoError(t, err)
	f.provider.MarkPaid(started.SessionID, "buyer@example.com")

	const rounds = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []Outcome
	)
	record := func(o Outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.NoError(t, err)
		outcomes = append(outcomes, o)
	}
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			record(f.recon.ConfirmRedirect(context.Background(), started.SessionID, "browser"))
		}()
		go func() {
			defer wg.Done()
			record(f.webhook(t, started.SessionID))
		}()
	}
	wg.Wait()

	confirmed := 0
	for _, o := range outcomes {
		if o == Confirmed {
			confirmed++
		} else {
			assert.Equal(t, AlreadyConfirmed, o)
		}
	}
	assert.Equal(t, 1, confirmed)
	assert.Equal(t, 1, f.notifier.count())

	var grants int64
	require.NoError(t, f.db.Model(&models.Entitlement{}).Count(&grants).Error)
	assert.Equal(t, int64(1), grants)
}

func TestDownloadGate(t *testing.T) {
	f := newFixture(t)
	u := f.user(t)
	p := f.print(t, "Moon", "10.00")
	noImage := f.print(t, "Blank", "10.00")
	require.NoError(t, f.db.Model(noImage).Update("image", "").Error)
	gate := NewDownloadGate(f.catalog, f.library, zap.NewNop())
	ctx := context.Background()

	_, err := gate.Authorize(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = gate.Authorize(ctx, u.ID, 999)
	assert.ErrorIs(t, err, ErrPrintNotFound)

	started, err := f.initiator.Start(ctx, f.cartWith(t, map[*models.ArtPrint]int{p: 1, noImage: 1}), &u.ID)
	require.NoError(t, err)

	_, err = gate.Authorize(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, ErrAccessDenied, "pending orders grant nothing")

	_, err = f.webhook(t, started.SessionID)
	require.NoError(t, err)

	got, err := gate.Authorize(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "moon-highres.png", DownloadName(got))

	_, err = gate.Authorize(ctx, u.ID, noImage.ID)
	assert.ErrorIs(t, err, ErrFileUnavailable)

	_, err = gate.Authorize(ctx, u.ID+1, p.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}
