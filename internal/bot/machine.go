// Package bot implements the conversational ordering state machine and its
// collaborators: catalog matching, delivery fee resolution and order
// assembly. The machine is transport-agnostic; it consumes parsed inbound
// events and emits text through a Messenger.
package bot

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/pedeja/pedeja-backend/internal/geo"
	"github.com/pedeja/pedeja-backend/internal/models"
	"github.com/pedeja/pedeja-backend/internal/storage"
)

// Messenger delivers text to a remote WhatsApp address. Delivery is
// fire-and-forget; the machine consumes no receipts.
type Messenger interface {
	SendText(to, body string) error
}

// Inbound is one parsed transport event: a text body, a location share, or
// both.
type Inbound struct {
	StoreID     string
	From        string
	ProfileName string
	Body        string
	Location    *models.Coordinates
}

// Keyword sets checked before state dispatch and inside the handlers. All
// entries are compared against normalized (accent-stripped, lowercased) text.
var (
	resetKeywords    = []string{"cancelar", "reiniciar", "menu", "oi", "ola"}
	finalizeKeywords = []string{"finalizar", "fechar pedido"}
	negationTokens   = []string{"nao", "nao quero", "unica", "inteira", "so uma", "1", "no"}
	skipRefTokens    = []string{"nao", "no", "nd"}
	affirmTokens     = []string{"ok", "sim", "confirmar"}
)

const handoffKeyword = "2"

var paymentOptions = map[string]string{
	"1":        models.PaymentPix,
	"pix":      models.PaymentPix,
	"2":        models.PaymentCash,
	"dinheiro": models.PaymentCash,
	"3":        models.PaymentCard,
	"cartao":   models.PaymentCard,
}

// Engine runs the per-conversation ordering protocol. Turns for the same
// remote address are serialized; different addresses proceed in parallel and
// share only the read-mostly settings/catalog caches.
type Engine struct {
	store     storage.Store
	messenger Messenger
	matcher   CatalogMatcher
	log       *zap.Logger

	reads *cache.Cache
	locks sync.Map
}

// NewEngine wires the state machine to its collaborators.
func NewEngine(store storage.Store, messenger Messenger, matcher CatalogMatcher, log *zap.Logger) *Engine {
	return &Engine{
		store:     store,
		messenger: messenger,
		matcher:   matcher,
		log:       log,
		reads:     cache.New(time.Minute, 5*time.Minute),
	}
}

// turn carries the mutable state of one inbound message through the
// transition handlers. Replies accumulate and are flushed before the session
// blob is persisted, so a failed turn never leaves a half-updated session.
type turn struct {
	in       Inbound
	body     string
	clean    string
	conv     *models.Conversation
	client   *models.Client
	session  *models.Session
	settings *models.StoreSettings
	replies  []string
}

func (t *turn) reply(body string) {
	t.replies = append(t.replies, body)
}

// stateHandler advances one state of the protocol. Returning an error aborts
// the turn before the session write; input rejection is not an error, it is
// a reply with the state unchanged.
type stateHandler func(e *Engine, t *turn) error

// transitions is the explicit state table of the ordering protocol.
var transitions = map[models.SessionState]stateHandler{
	models.StateName:         (*Engine).handleName,
	models.StateNameCheckout: (*Engine).handleNameCheckout,
	models.StateMenu:         (*Engine).handleMenu,
	models.StateOrdering:     (*Engine).handleOrdering,
	models.StatePizza1:       (*Engine).handlePizzaFirst,
	models.StatePizza2:       (*Engine).handlePizzaSecond,
	models.StateAddress:      (*Engine).handleAddress,
	models.StateAddressNum:   (*Engine).handleAddressNumber,
	models.StateAddressRef:   (*Engine).handleAddressReference,
	models.StatePayment:      (*Engine).handlePayment,
	models.StateConfirm:      (*Engine).handleConfirm,
}

// HandleInbound processes one inbound message end to end: syncs the client
// and conversation, runs the state machine, sends the replies and persists
// the new session as the final step.
func (e *Engine) HandleInbound(in Inbound) error {
	lock := e.addressLock(in.From)
	lock.Lock()
	defer lock.Unlock()

	t := &turn{
		in:    in,
		body:  strings.TrimSpace(in.Body),
		clean: Normalize(in.Body),
	}

	if err := e.syncClient(t); err != nil {
		return fmt.Errorf("sync client: %w", err)
	}
	if err := e.syncConversation(t); err != nil {
		return fmt.Errorf("sync conversation: %w", err)
	}

	if err := e.store.SaveMessage(&models.Message{
		ConversationID: t.conv.ID,
		Body:           in.Body,
		FromMe:         false,
	}); err != nil {
		return fmt.Errorf("log inbound message: %w", err)
	}

	if !t.conv.BotEnabled {
		return nil
	}

	settings, err := e.tenantSettings(in.StoreID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	t.settings = settings
	t.session = models.DecodeSession(t.conv.SessionData)

	// Global overrides run before state dispatch on every text.
	if t.body != "" {
		if containsToken(resetKeywords, t.clean) {
			e.resetToGreeting(t)
			return e.flush(t)
		}
		if t.clean == handoffKeyword {
			return e.handoff(t)
		}
	}

	handler, ok := transitions[t.session.State]
	if !ok {
		// Unknown persisted state; recover instead of wedging the chat.
		e.log.Warn("unknown session state, forcing menu reset",
			zap.String("state", string(t.session.State)),
			zap.String("from", in.From))
		t.session.Reset(models.StateMenu)
		t.reply(replySessionRecovered)
		return e.flush(t)
	}

	if err := handler(e, t); err != nil {
		return err
	}
	return e.flush(t)
}

// flush sends all accumulated replies and then persists the session. The
// session write is deliberately the last step: any earlier failure leaves
// the previously stored state intact for the next inbound message.
func (e *Engine) flush(t *turn) error {
	for _, body := range t.replies {
		if err := e.messenger.SendText(t.in.From, body); err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
		if err := e.store.SaveMessage(&models.Message{
			ConversationID: t.conv.ID,
			Body:           body,
			FromMe:         true,
		}); err != nil {
			return fmt.Errorf("log outbound message: %w", err)
		}
	}

	blob, err := t.session.Encode()
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := e.store.SaveSessionData(t.conv.ID, blob); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// syncClient resolves or creates the customer record for the sender.
func (e *Engine) syncClient(t *turn) error {
	client, err := e.store.GetClientByPhone(t.in.StoreID, t.in.From)
	if err == nil {
		t.client = client
		return nil
	}
	if err != storage.ErrNotFound {
		return err
	}

	name := t.in.ProfileName
	if name == "" {
		name = models.PlaceholderName
	}
	client, err = e.store.CreateClient(&models.Client{
		StoreID: t.in.StoreID,
		Name:    name,
		Phone:   t.in.From,
	})
	if err != nil {
		return err
	}
	e.log.Info("new client synced",
		zap.String("phone", t.in.From),
		zap.String("store", t.in.StoreID))
	t.client = client
	return nil
}

// syncConversation resolves or creates the conversation for the sender.
func (e *Engine) syncConversation(t *turn) error {
	conv, err := e.store.GetConversationByJID(t.in.From)
	if err == nil {
		t.conv = conv
		return nil
	}
	if err != storage.ErrNotFound {
		return err
	}

	blob, _ := models.NewSession().Encode()
	conv, err = e.store.CreateConversation(&models.Conversation{
		StoreID:     t.in.StoreID,
		RemoteJID:   t.in.From,
		ContactName: t.in.ProfileName,
		SessionData: blob,
	})
	if err != nil {
		return err
	}
	t.conv = conv
	return nil
}

// resetToGreeting handles the global reset/greeting keywords: clear the cart
// and jump to NAME when the customer never gave a name, MENU otherwise.
func (e *Engine) resetToGreeting(t *turn) {
	if !t.client.HasRealName() {
		t.session.Reset(models.StateName)
		t.reply(replyAskFirstName(t.settings.DisplayName()))
		return
	}
	t.session.Reset(models.StateMenu)
	t.reply(replyMenuGreeting(t.client.FirstName(), t.settings.DisplayName()))
}

// handoff routes the conversation to a human: the bot flips off and stays
// off until an operator re-enables it. The acknowledgement goes out exactly
// once because subsequent texts short-circuit on BotEnabled.
func (e *Engine) handoff(t *turn) error {
	if err := e.store.SetBotEnabled(t.conv.ID, false); err != nil {
		return fmt.Errorf("disable bot: %w", err)
	}
	if err := e.messenger.SendText(t.in.From, replyAgentCalled); err != nil {
		return fmt.Errorf("send handoff ack: %w", err)
	}
	if err := e.store.SaveMessage(&models.Message{
		ConversationID: t.conv.ID,
		Body:           replyAgentCalled,
		FromMe:         true,
	}); err != nil {
		return fmt.Errorf("log handoff ack: %w", err)
	}
	e.log.Info("conversation handed off to agent", zap.String("from", t.in.From))
	return nil
}

// State handlers

func (e *Engine) handleName(t *turn) error {
	if len([]rune(t.body)) < 3 {
		t.reply(replyNameTooShort)
		return nil
	}
	if err := e.store.UpdateClientName(t.client.ID, t.body); err != nil {
		return fmt.Errorf("update client name: %w", err)
	}
	t.client.Name = t.body
	t.session.State = models.StateMenu
	t.reply(replyNameSaved(t.body))
	return nil
}

func (e *Engine) handleNameCheckout(t *turn) error {
	if len([]rune(t.body)) < 3 {
		t.reply(replyNameCheckoutTooShort)
		return nil
	}
	if err := e.store.UpdateClientName(t.client.ID, t.body); err != nil {
		return fmt.Errorf("update client name: %w", err)
	}
	t.client.Name = t.body
	t.session.State = models.StateAddress
	t.reply(replyNameCheckoutSaved(t.body))
	return nil
}

func (e *Engine) handleMenu(t *turn) error {
	if t.clean != "1" && t.clean != "ver cardapio" {
		t.reply(replyMenuFallback)
		return nil
	}
	products, err := e.catalog(t.in.StoreID, "")
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	t.reply(renderMenu(t.settings.DisplayName(), products))
	t.session.State = models.StateOrdering
	return nil
}

func (e *Engine) handleOrdering(t *turn) error {
	if containsToken(finalizeKeywords, t.clean) {
		if len(t.session.Cart) == 0 {
			t.reply(replyEmptyCart)
			return nil
		}
		if !t.client.HasRealName() {
			t.session.State = models.StateNameCheckout
			t.reply(replyAskName)
			return nil
		}
		t.session.State = models.StateAddress
		t.reply(replyAddressPrompt)
		return nil
	}

	// Half-and-half trigger phrases start the guided builder.
	if strings.Contains(t.clean, "meia") || strings.Contains(t.clean, "metade") {
		t.session.State = models.StatePizza1
		t.session.PendingComposite = nil
		t.reply(replyBuilderFirstFlavor)
		return nil
	}

	products, err := e.catalog(t.in.StoreID, "")
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	match := e.matcher.Match(t.body, products)
	if match == nil {
		// Only nudge on inputs that look like a real attempt.
		if len(t.clean) > 3 && !containsToken(affirmTokens, t.clean) {
			t.reply(replyProductNotFound)
		}
		return nil
	}

	// Composite-category hits detour through the second-flavor question.
	if match.Product.IsComposite() {
		t.session.PendingComposite = &models.PendingComposite{
			ProductID: match.Product.ID,
			Name:      match.Product.Name,
			Price:     match.Product.Price,
		}
		t.session.State = models.StatePizza2
		t.reply(replyAskSecondFlavor(match.Product.Name))
		return nil
	}

	t.session.Cart = append(t.session.Cart, models.CartLine{
		ProductID: match.Product.ID,
		Name:      match.Product.Name,
		Price:     match.Product.Price,
		Quantity:  match.Quantity,
	})
	t.reply(replyLineAdded(match.Quantity, match.Product.Name, t.session.Subtotal()))
	return nil
}

func (e *Engine) handlePizzaFirst(t *turn) error {
	flavors, err := e.catalog(t.in.StoreID, models.CategoryPizza)
	if err != nil {
		return fmt.Errorf("list flavors: %w", err)
	}

	matched := e.matcher.MatchName(t.body, flavors)
	if matched == nil {
		t.reply(replyFlavorNotFound)
		return nil
	}

	t.session.PendingComposite = &models.PendingComposite{
		ProductID: matched.ID,
		Name:      matched.Name,
		Price:     matched.Price,
	}
	t.session.State = models.StatePizza2
	t.reply(replyFirstFlavorSet(matched.Name))
	return nil
}

func (e *Engine) handlePizzaSecond(t *turn) error {
	first := t.session.PendingComposite
	if first == nil {
		// Second flavor step with no first component recorded: recover
		// rather than leaving the session stuck.
		e.log.Warn("pizza builder reached with no first flavor", zap.String("from", t.in.From))
		t.session.Reset(models.StateMenu)
		t.reply(replySessionRecovered)
		return nil
	}

	if containsToken(negationTokens, t.clean) {
		t.session.Cart = append(t.session.Cart, models.CartLine{
			ProductID: first.ProductID,
			Name:      first.Name,
			Price:     first.Price,
			Quantity:  1,
		})
		t.session.PendingComposite = nil
		t.session.State = models.StateOrdering
		t.reply(replySingleFlavorAdded(first.Name, first.Price))
		return nil
	}

	flavors, err := e.catalog(t.in.StoreID, models.CategoryPizza)
	if err != nil {
		return fmt.Errorf("list flavors: %w", err)
	}

	second := e.matcher.MatchName(t.body, flavors)
	if second == nil {
		t.reply(replySecondFlavorNotFound)
		return nil
	}

	// Composite price is the max of the two halves; the line links to the
	// pricier component.
	price := first.Price
	productID := first.ProductID
	if second.Price > price {
		price = second.Price
		productID = second.ID
	}

	t.session.Cart = append(t.session.Cart, models.CartLine{
		ProductID:        productID,
		Name:             fmt.Sprintf("Meia %s / Meia %s", first.Name, second.Name),
		Price:            price,
		Quantity:         1,
		IsHalfHalf:       true,
		SecondFlavorName: second.Name,
	})
	t.session.PendingComposite = nil
	t.session.State = models.StateOrdering
	t.reply(replyPizzaBuilt(first.Name, second.Name, price))
	return nil
}

func (e *Engine) handleAddress(t *turn) error {
	if t.in.Location != nil {
		storeLat, storeLng := t.settings.Coordinates()
		dist := geo.Distance(t.in.Location.Lat, t.in.Location.Lng, storeLat, storeLng)
		fee := ResolveFee(dist, t.settings.FeeTiers())

		t.session.Location = t.in.Location
		t.session.DeliveryFee = fee
		t.session.Address = "📍 Localização Maps"
		t.session.State = models.StateAddressNum
		t.reply(replyLocationReceived(fee))
		return nil
	}

	// Text address: distance is unknowable, a flat fee applies.
	t.session.Address = t.body
	t.session.DeliveryFee = FlatTextAddressFee
	t.session.State = models.StateAddressNum
	t.reply(replyTextAddressSaved)
	return nil
}

func (e *Engine) handleAddressNumber(t *turn) error {
	t.session.Address = fmt.Sprintf("%s, %s", t.session.Address, t.body)
	t.session.State = models.StateAddressRef
	t.reply(replyAskReference)
	return nil
}

func (e *Engine) handleAddressReference(t *turn) error {
	if !containsToken(skipRefTokens, t.clean) {
		t.session.Address = fmt.Sprintf("%s (Ref: %s)", t.session.Address, t.body)
	}
	t.session.Total = t.session.Subtotal() + t.session.DeliveryFee
	t.session.State = models.StatePayment
	t.reply(replyPaymentPrompt)
	return nil
}

func (e *Engine) handlePayment(t *turn) error {
	method, ok := paymentOptions[t.clean]
	if !ok {
		t.reply(replyPaymentInvalid)
		return nil
	}
	t.session.PaymentMethod = method
	t.session.State = models.StateConfirm
	t.reply(replyOrderSummary(t.session))
	return nil
}

func (e *Engine) handleConfirm(t *turn) error {
	if !containsToken(affirmTokens, t.clean) {
		t.session.Reset(models.StateMenu)
		t.reply(replyOrderCancelled)
		return nil
	}

	order, err := e.assembleOrder(t)
	if err != nil {
		// The turn aborts and the session stays in CONFIRM for a retry.
		return fmt.Errorf("create order: %w", err)
	}

	e.log.Info("order created",
		zap.Int("order_number", order.OrderNumber),
		zap.String("store", order.StoreID),
		zap.String("client", order.ClientName),
		zap.Float64("total", order.Total))

	t.session.Reset(models.StateMenu)
	t.reply(replyOrderConfirmed(order.OrderNumber))
	return nil
}

// Helpers

func (e *Engine) addressLock(addr string) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(addr, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// tenantSettings reads the tenant configuration through a short-lived cache;
// a tenant with no settings row gets defaults rather than a failed turn.
func (e *Engine) tenantSettings(storeID string) (*models.StoreSettings, error) {
	key := "settings:" + storeID
	if v, found := e.reads.Get(key); found {
		return v.(*models.StoreSettings), nil
	}
	settings, err := e.store.GetSettings(storeID)
	if err == storage.ErrNotFound {
		settings = &models.StoreSettings{StoreID: storeID}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	e.reads.Set(key, settings, cache.DefaultExpiration)
	return settings, nil
}

// catalog reads the active product list through the same cache.
func (e *Engine) catalog(storeID, category string) ([]*models.Product, error) {
	key := "products:" + storeID + ":" + category
	if v, found := e.reads.Get(key); found {
		return v.([]*models.Product), nil
	}
	products, err := e.store.ListActiveProducts(storeID, category)
	if err != nil {
		return nil, err
	}
	e.reads.Set(key, products, cache.DefaultExpiration)
	return products, nil
}

func containsToken(tokens []string, clean string) bool {
	for _, tok := range tokens {
		if clean == tok {
			return true
		}
	}
	return false
}
