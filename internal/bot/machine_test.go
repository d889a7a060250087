package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pedeja/pedeja-backend/internal/models"
	"github.com/pedeja/pedeja-backend/internal/storage"
)

// fakeMessenger records outgoing texts and can simulate transport failure.
type fakeMessenger struct {
	sent   []string
	events *[]string
	fail   bool
}

func (f *fakeMessenger) SendText(to, body string) error {
	if f.fail {
		return errors.New("transport down")
	}
	if f.events != nil {
		*f.events = append(*f.events, "send")
	}
	f.sent = append(f.sent, body)
	return nil
}

func (f *fakeMessenger) lastSent() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

// trackingStore wraps the memory store to observe session writes and to
// inject order-creation failures.
type trackingStore struct {
	*storage.MemoryStore
	events          *[]string
	failCreateOrder bool
}

func (s *trackingStore) SaveSessionData(conversationID uint, blob string) error {
	if s.events != nil {
		*s.events = append(*s.events, "save")
	}
	return s.MemoryStore.SaveSessionData(conversationID, blob)
}

func (s *trackingStore) CreateOrder(order *models.Order) (*models.Order, error) {
	if s.failCreateOrder {
		return nil, errors.New("database unavailable")
	}
	return s.MemoryStore.CreateOrder(order)
}

const (
	testStoreID = "store-1"
	testPhone   = "+5511988887777"
)

type harness struct {
	engine    *Engine
	store     *trackingStore
	messenger *fakeMessenger
	events    []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{}
	mem := storage.NewMemoryStore()
	mem.AddProduct(&models.Product{StoreID: testStoreID, Name: "X-Burguer", Price: 18, Category: models.CategorySnack})
	mem.AddProduct(&models.Product{StoreID: testStoreID, Name: "Pizza Calabresa", Price: 20, Category: models.CategoryPizza})
	mem.AddProduct(&models.Product{StoreID: testStoreID, Name: "Pizza Portuguesa", Price: 25, Category: models.CategoryPizza})
	mem.PutSettings(&models.StoreSettings{StoreID: testStoreID, Name: "Pizzaria Teste"})

	h.store = &trackingStore{MemoryStore: mem, events: &h.events}
	h.messenger = &fakeMessenger{events: &h.events}
	h.engine = NewEngine(h.store, h.messenger, NewHeuristicMatcher(), zap.NewNop())
	return h
}

func (h *harness) text(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, h.engine.HandleInbound(Inbound{
		StoreID: testStoreID,
		From:    testPhone,
		Body:    body,
	}))
}

func (h *harness) session(t *testing.T) *models.Session {
	t.Helper()
	conv, err := h.store.GetConversationByJID(testPhone)
	require.NoError(t, err)
	return models.DecodeSession(conv.SessionData)
}

func TestHappyPathOrderFlow(t *testing.T) {
	h := newHarness(t)

	// First contact from an unknown number asks for the name.
	h.text(t, "oi")
	assert.Contains(t, h.messenger.lastSent(), "digite seu *NOME*")
	assert.Equal(t, models.StateName, h.session(t).State)

	h.text(t, "Maria")
	assert.Contains(t, h.messenger.lastSent(), "Maria")
	assert.Equal(t, models.StateMenu, h.session(t).State)

	h.text(t, "1")
	assert.Contains(t, h.messenger.lastSent(), "CARDÁPIO")
	assert.Contains(t, h.messenger.lastSent(), "X-Burguer: R$ 18.00")
	assert.Equal(t, models.StateOrdering, h.session(t).State)

	// Free text with noise words still hits the catalog.
	h.text(t, "quero um x-burguer")
	assert.Contains(t, h.messenger.lastSent(), "1x X-Burguer")
	assert.Contains(t, h.messenger.lastSent(), "R$ 18.00")

	h.text(t, "finalizar")
	assert.Equal(t, replyAddressPrompt, h.messenger.lastSent())
	assert.Equal(t, models.StateAddress, h.session(t).State)

	// Typed address gets the flat fee.
	h.text(t, "Rua das Flores")
	assert.Equal(t, replyTextAddressSaved, h.messenger.lastSent())
	assert.Equal(t, FlatTextAddressFee, h.session(t).DeliveryFee)

	h.text(t, "123")
	assert.Equal(t, replyAskReference, h.messenger.lastSent())

	h.text(t, "não")
	assert.Equal(t, replyPaymentPrompt, h.messenger.lastSent())
	sess := h.session(t)
	assert.Equal(t, models.StatePayment, sess.State)
	assert.Equal(t, 28.0, sess.Total)
	assert.Equal(t, "Rua das Flores, 123", sess.Address)

	h.text(t, "pix")
	assert.Contains(t, h.messenger.lastSent(), "Resumo do Pedido")
	assert.Contains(t, h.messenger.lastSent(), "Total: R$ 28.00")
	assert.Equal(t, models.StateConfirm, h.session(t).State)

	h.text(t, "ok")
	assert.Contains(t, h.messenger.lastSent(), "Pedido #1 Recebido")

	// Confirmation resets the session for the next order.
	sess = h.session(t)
	assert.Equal(t, models.StateMenu, sess.State)
	assert.Empty(t, sess.Cart)

	order, err := h.store.GetOrder(1)
	require.NoError(t, err)
	assert.Equal(t, 1, order.OrderNumber)
	assert.Equal(t, "Maria", order.ClientName)
	assert.Equal(t, "Rua das Flores, 123", order.DeliveryAddress)
	assert.Equal(t, 18.0, order.Subtotal)
	assert.Equal(t, 28.0, order.Total)
	assert.Equal(t, models.PaymentPix, order.PaymentMethod)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "X-Burguer", order.Items[0].ProductName)
}

func TestHandoffDisablesBot(t *testing.T) {
	h := newHarness(t)

	h.text(t, "oi")
	h.text(t, "2")

	conv, err := h.store.GetConversationByJID(testPhone)
	require.NoError(t, err)
	assert.False(t, conv.BotEnabled)
	assert.Equal(t, replyAgentCalled, h.messenger.lastSent())

	// With the bot off, further texts are logged but produce no replies.
	before := len(h.messenger.sent)
	h.text(t, "alguem ai?")
	h.text(t, "2")
	assert.Equal(t, before, len(h.messenger.sent))

	acks := 0
	for _, body := range h.messenger.sent {
		if body == replyAgentCalled {
			acks++
		}
	}
	assert.Equal(t, 1, acks, "handoff acknowledgement must go out exactly once")
}

func TestResetKeywordIsIdempotent(t *testing.T) {
	h := newHarness(t)

	// A profile name counts as a real name, so greetings go straight to the menu.
	require.NoError(t, h.engine.HandleInbound(Inbound{
		StoreID: testStoreID, From: testPhone, ProfileName: "Maria", Body: "oi",
	}))
	first := h.messenger.lastSent()
	assert.Contains(t, first, "Maria")

	h.text(t, "1")
	h.text(t, "x-burguer")
	require.Len(t, h.session(t).Cart, 1)

	// Reset mid-order drops the cart; repeating it changes nothing.
	h.text(t, "menu")
	assert.Equal(t, first, h.messenger.lastSent())
	h.text(t, "menu")
	assert.Equal(t, first, h.messenger.lastSent())

	sess := h.session(t)
	assert.Equal(t, models.StateMenu, sess.State)
	assert.Empty(t, sess.Cart)
}

func TestHalfHalfPricingTakesMax(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.HandleInbound(Inbound{
		StoreID: testStoreID, From: testPhone, ProfileName: "Maria", Body: "oi",
	}))
	h.text(t, "1")

	h.text(t, "quero meia a meia")
	assert.Equal(t, replyBuilderFirstFlavor, h.messenger.lastSent())
	assert.Equal(t, models.StatePizza1, h.session(t).State)

	h.text(t, "calabresa")
	assert.Contains(t, h.messenger.lastSent(), "1º Sabor: Pizza Calabresa")

	h.text(t, "portuguesa")
	assert.Contains(t, h.messenger.lastSent(), "R$ 25.00")

	sess := h.session(t)
	assert.Equal(t, models.StateOrdering, sess.State)
	require.Len(t, sess.Cart, 1)
	line := sess.Cart[0]
	assert.Equal(t, "Meia Pizza Calabresa / Meia Pizza Portuguesa", line.Name)
	assert.Equal(t, 25.0, line.Price)
	assert.True(t, line.IsHalfHalf)
	assert.Equal(t, "Pizza Portuguesa", line.SecondFlavorName)
	assert.Nil(t, sess.PendingComposite)
}

func TestHalfHalfDeclinedKeepsSingleFlavor(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.HandleInbound(Inbound{
		StoreID: testStoreID, From: testPhone, ProfileName: "Maria", Body: "oi",
	}))
	h.text(t, "1")

	// A pizza-category hit detours through the second-flavor question.
	h.text(t, "pizza calabresa")
	assert.Contains(t, h.messenger.lastSent(), "2º sabor")
	assert.Equal(t, models.StatePizza2, h.session(t).State)

	h.text(t, "não")
	sess := h.session(t)
	assert.Equal(t, models.StateOrdering, sess.State)
	require.Len(t, sess.Cart, 1)
	assert.Equal(t, "Pizza Calabresa", sess.Cart[0].Name)
	assert.Equal(t, 20.0, sess.Cart[0].Price)
	assert.False(t, sess.Cart[0].IsHalfHalf)
}

func TestFinalizeWithEmptyCart(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.HandleInbound(Inbound{
		StoreID: testStoreID, From: testPhone, ProfileName: "Maria", Body: "oi",
	}))
	h.text(t, "1")

	h.text(t, "finalizar")
	assert.Equal(t, replyEmptyCart, h.messenger.lastSent())
	assert.Equal(t, models.StateOrdering, h.session(t).State)
}

func TestLocationShareComputesTierFee(t *testing.T) {
	h := newHarness(t)
	h.store.MemoryStore.PutSettings(&models.StoreSettings{
		StoreID:   testStoreID,
		Name:      "Pizzaria Teste",
		Latitude:  -23.550520,
		Longitude: -46.633308,
	})

	require.NoError(t, h.engine.HandleInbound(Inbound{
		StoreID: testStoreID, From: testPhone, ProfileName: "Maria", Body: "oi",
	}))
	h.text(t, "1")
	h.text(t, "x-burguer")
	h.text(t, "finalizar")

	// Roughly 1.1km north of the store: first rung of the fallback ladder.
	require.NoError(t, h.engine.HandleInbound(Inbound{
		StoreID:  testStoreID,
		From:     testPhone,
		Location: &models.Coordinates{Lat: -23.540520, Lng: -46.633308},
	}))
	assert.Contains(t, h.messenger.lastSent(), "Frete: R$ 5.00")

	sess := h.session(t)
	assert.Equal(t, models.StateAddressNum, sess.State)
	assert.Equal(t, 5.0, sess.DeliveryFee)
	assert.Equal(t, "📍 Localização Maps", sess.Address)
}

func TestOrderFailureKeepsSessionForRetry(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.HandleInbound(Inbound{
		StoreID: testStoreID, From: testPhone, ProfileName: "Maria", Body: "oi",
	}))
	h.text(t, "1")
	h.text(t, "x-burguer")
	h.text(t, "finalizar")
	h.text(t, "Rua das Flores")
	h.text(t, "123")
	h.text(t, "não")
	h.text(t, "pix")
	require.Equal(t, models.StateConfirm, h.session(t).State)

	h.store.failCreateOrder = true
	err := h.engine.HandleInbound(Inbound{StoreID: testStoreID, From: testPhone, Body: "ok"})
	require.Error(t, err)

	// The aborted turn left the persisted session untouched.
	sess := h.session(t)
	assert.Equal(t, models.StateConfirm, sess.State)
	require.Len(t, sess.Cart, 1)

	h.store.failCreateOrder = false
	h.text(t, "ok")
	assert.Contains(t, h.messenger.lastSent(), "Pedido #1 Recebido")
	assert.Equal(t, models.StateMenu, h.session(t).State)
}

func TestSessionPersistedAfterReplies(t *testing.T) {
	h := newHarness(t)

	h.text(t, "oi")

	require.NotEmpty(t, h.events)
	assert.Equal(t, "save", h.events[len(h.events)-1], "session write must be the final step of a turn")
	saves := 0
	for _, ev := range h.events {
		if ev == "save" {
			saves++
		}
	}
	assert.Equal(t, 1, saves, "exactly one session write per turn")
}

func TestSendFailureSkipsSessionWrite(t *testing.T) {
	h := newHarness(t)

	h.text(t, "oi")
	before := h.session(t)

	h.messenger.fail = true
	err := h.engine.HandleInbound(Inbound{StoreID: testStoreID, From: testPhone, Body: "Maria"})
	require.Error(t, err)

	// Transport failure aborts before the session write.
	assert.Equal(t, before.State, h.session(t).State)
}

func TestUnrecognizedProductNudgesOnlyRealAttempts(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.HandleInbound(Inbound{
		StoreID: testStoreID, From: testPhone, ProfileName: "Maria", Body: "oi",
	}))
	h.text(t, "1")

	h.text(t, "batata frita grande")
	assert.Equal(t, replyProductNotFound, h.messenger.lastSent())

	// Short acknowledgements are ignored instead of nudged.
	before := len(h.messenger.sent)
	h.text(t, "sim")
	h.text(t, "ta")
	assert.Equal(t, before, len(h.messenger.sent))
}

func TestCancelAtSummaryDropsOrder(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.HandleInbound(Inbound{
		StoreID: testStoreID, From: testPhone, ProfileName: "Maria", Body: "oi",
	}))
	h.text(t, "1")
	h.text(t, "x-burguer")
	h.text(t, "finalizar")
	h.text(t, "Rua das Flores")
	h.text(t, "123")
	h.text(t, "não")
	h.text(t, "dinheiro")
	require.Equal(t, models.StateConfirm, h.session(t).State)

	h.text(t, "cancelar pedido")
	assert.Equal(t, replyOrderCancelled, h.messenger.lastSent())

	sess := h.session(t)
	assert.Equal(t, models.StateMenu, sess.State)
	assert.Empty(t, sess.Cart)
	_, err := h.store.GetOrder(1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCorruptSessionBlobRecovers(t *testing.T) {
	h := newHarness(t)

	h.text(t, "oi")
	conv, err := h.store.GetConversationByJID(testPhone)
	require.NoError(t, err)
	require.NoError(t, h.store.MemoryStore.SaveSessionData(conv.ID, "{not json"))

	h.text(t, "1")
	// Decoding fell back to a fresh menu session, so "1" renders the catalog.
	assert.True(t, strings.Contains(h.messenger.lastSent(), "CARDÁPIO"))
	assert.Equal(t, models.StateOrdering, h.session(t).State)
}
