package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pedeja/pedeja-backend/internal/models"
)

// MemoryStore holds all data in memory. It backs tests and local development
// without Postgres.
type MemoryStore struct {
	mu sync.RWMutex

	clients       map[uint]*models.Client
	conversations map[uint]*models.Conversation
	messages      []*models.Message
	products      map[uint]*models.Product
	settings      map[string]*models.StoreSettings
	orders        map[uint]*models.Order

	clientSeq  uint
	convSeq    uint
	productSeq uint
	orderSeq   uint
	msgSeq     uint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:       make(map[uint]*models.Client),
		conversations: make(map[uint]*models.Conversation),
		products:      make(map[uint]*models.Product),
		settings:      make(map[string]*models.StoreSettings),
		orders:        make(map[uint]*models.Order),
	}
}

// Client operations

func (m *MemoryStore) GetClientByPhone(storeID, phone string) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		if c.StoreID == storeID && c.Phone == phone {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateClient(client *models.Client) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clientSeq++
	client.ID = m.clientSeq
	client.Phone = strings.TrimSpace(client.Phone)
	if client.Name == "" {
		client.Name = models.PlaceholderName
	}
	client.CreatedAt = time.Now()
	client.UpdatedAt = time.Now()

	m.clients[client.ID] = client
	return client, nil
}

func (m *MemoryStore) UpdateClientName(id uint, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[id]
	if !ok {
		return ErrNotFound
	}
	client.Name = name
	client.UpdatedAt = time.Now()
	return nil
}

// Conversation operations

func (m *MemoryStore) GetConversationByJID(remoteJID string) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.conversations {
		if c.RemoteJID == remoteJID {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetConversation(id uint) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return conv, nil
}

func (m *MemoryStore) ListConversations(storeID string) ([]*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Conversation
	for _, c := range m.conversations {
		if c.StoreID == storeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CreateConversation(conv *models.Conversation) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.convSeq++
	conv.ID = m.convSeq
	conv.BotEnabled = true
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = time.Now()

	m.conversations[conv.ID] = conv
	return conv, nil
}

func (m *MemoryStore) SetBotEnabled(id uint, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.BotEnabled = enabled
	conv.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) SaveSessionData(conversationID uint, blob string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	conv.SessionData = blob
	conv.UpdatedAt = time.Now()
	return nil
}

// Message log

func (m *MemoryStore) SaveMessage(msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.msgSeq++
	msg.ID = m.msgSeq
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, msg)
	return nil
}

// Catalog operations

// AddProduct seeds a product; used by tests and local development.
func (m *MemoryStore) AddProduct(p *models.Product) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.productSeq++
	p.ID = m.productSeq
	p.Active = true
	m.products[p.ID] = p
	return p
}

func (m *MemoryStore) ListActiveProducts(storeID, category string) ([]*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Product
	for _, p := range m.products {
		if p.StoreID != storeID || !p.Active {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	// Catalog order is insertion order; first match wins in the matcher.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Settings

// PutSettings seeds tenant settings; used by tests and local development.
func (m *MemoryStore) PutSettings(s *models.StoreSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.StoreID] = s
}

func (m *MemoryStore) GetSettings(storeID string) (*models.StoreSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[storeID]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Order operations

func (m *MemoryStore) NextOrderNumber(storeID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	last := 0
	for _, o := range m.orders {
		if o.StoreID == storeID && o.OrderNumber > last {
			last = o.OrderNumber
		}
	}
	return last + 1, nil
}

func (m *MemoryStore) CreateOrder(order *models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orderSeq++
	order.ID = m.orderSeq
	if order.Reference == "" {
		order.Reference = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.Source == "" {
		order.Source = models.OrderSourceWhatsAppBot
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	m.orders[order.ID] = order
	return order, nil
}

func (m *MemoryStore) GetOrder(id uint) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return order, nil
}
