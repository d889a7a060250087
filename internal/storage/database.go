package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pedeja/pedeja-backend/internal/models"
)

// DatabaseStore is the GORM/Postgres implementation of Store.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open gorm connection.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Client operations

func (d *DatabaseStore) GetClientByPhone(storeID, phone string) (*models.Client, error) {
	var client models.Client
	err := d.db.Where("store_id = ? AND phone = ?", storeID, phone).First(&client).Error
	if err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

func (d *DatabaseStore) CreateClient(client *models.Client) (*models.Client, error) {
	if err := d.db.Create(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

func (d *DatabaseStore) UpdateClientName(id uint, name string) error {
	res := d.db.Model(&models.Client{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Conversation operations

func (d *DatabaseStore) GetConversationByJID(remoteJID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := d.db.Where("remote_jid = ?", remoteJID).First(&conv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

func (d *DatabaseStore) GetConversation(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := d.db.First(&conv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

func (d *DatabaseStore) ListConversations(storeID string) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	err := d.db.Where("store_id = ?", storeID).Order("updated_at DESC").Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (d *DatabaseStore) CreateConversation(conv *models.Conversation) (*models.Conversation, error) {
	conv.BotEnabled = true
	if err := d.db.Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

func (d *DatabaseStore) SetBotEnabled(id uint, enabled bool) error {
	res := d.db.Model(&models.Conversation{}).Where("id = ?", id).Update("bot_enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) SaveSessionData(conversationID uint, blob string) error {
	res := d.db.Model(&models.Conversation{}).Where("id = ?", conversationID).Update("session_data", blob)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Message log

func (d *DatabaseStore) SaveMessage(msg *models.Message) error {
	return d.db.Create(msg).Error
}

// Catalog operations

func (d *DatabaseStore) ListActiveProducts(storeID, category string) ([]*models.Product, error) {
	q := d.db.Where("store_id = ? AND active = ?", storeID, true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var products []*models.Product
	if err := q.Order("category ASC, id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Settings

func (d *DatabaseStore) GetSettings(storeID string) (*models.StoreSettings, error) {
	var settings models.StoreSettings
	err := d.db.Where("store_id = ?", storeID).First(&settings).Error
	if err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}

// Order operations

func (d *DatabaseStore) NextOrderNumber(storeID string) (int, error) {
	var last int
	err := d.db.Model(&models.Order{}).
		Where("store_id = ?", storeID).
		Select("COALESCE(MAX(order_number), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (d *DatabaseStore) CreateOrder(order *models.Order) (*models.Order, error) {
	// Order and line items land in one transaction; gorm cascades Items
	// through the foreign key.
	err := d.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (d *DatabaseStore) GetOrder(id uint) (*models.Order, error) {
	var order models.Order
	if err := d.db.Preload("Items").First(&order, id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}
