package storage

import (
	"errors"

	"github.com/pedeja/pedeja-backend/internal/models"
)

// ErrNotFound is returned by lookups that found no row. Callers that can
// self-heal (customer sync, conversation sync) create the record instead of
// treating this as a failure.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence operations the bot and the operator API
// consume. Instances are injected; there is no package-level store.
type Store interface {
	// Client operations
	GetClientByPhone(storeID, phone string) (*models.Client, error)
	CreateClient(client *models.Client) (*models.Client, error)
	UpdateClientName(id uint, name string) error

	// Conversation operations
	GetConversationByJID(remoteJID string) (*models.Conversation, error)
	GetConversation(id uint) (*models.Conversation, error)
	ListConversations(storeID string) ([]*models.Conversation, error)
	CreateConversation(conv *models.Conversation) (*models.Conversation, error)
	SetBotEnabled(id uint, enabled bool) error
	SaveSessionData(conversationID uint, blob string) error

	// Message log
	SaveMessage(msg *models.Message) error

	// Catalog operations. An empty category lists the whole active catalog.
	ListActiveProducts(storeID, category string) ([]*models.Product, error)

	// Settings
	GetSettings(storeID string) (*models.StoreSettings, error)

	// Order operations. NextOrderNumber is monotonic per tenant; two tenants
	// may share a display number.
	NextOrderNumber(storeID string) (int, error)
	CreateOrder(order *models.Order) (*models.Order, error)
	GetOrder(id uint) (*models.Order, error)
}
