package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedeja/pedeja-backend/internal/models"
)

func TestOrderNumbersMonotonicPerTenant(t *testing.T) {
	store := NewMemoryStore()

	for i := 1; i <= 3; i++ {
		n, err := store.NextOrderNumber("store-a")
		require.NoError(t, err)
		assert.Equal(t, i, n)
		_, err = store.CreateOrder(&models.Order{StoreID: "store-a", OrderNumber: n})
		require.NoError(t, err)
	}

	// A second tenant starts from 1 again; display numbers are per tenant.
	n, err := store.NextOrderNumber("store-b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateOrderDefaults(t *testing.T) {
	store := NewMemoryStore()

	order, err := store.CreateOrder(&models.Order{
		StoreID:     "store-a",
		OrderNumber: 1,
		Items:       []models.OrderItem{{ProductName: "X-Burguer", Quantity: 2, UnitPrice: 15}},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, order.Reference)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.OrderSourceWhatsAppBot, order.Source)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	loaded, err := store.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Reference, loaded.Reference)
}

func TestConversationSessionRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	conv, err := store.CreateConversation(&models.Conversation{
		StoreID:   "store-a",
		RemoteJID: "+5511999999999",
	})
	require.NoError(t, err)
	assert.True(t, conv.BotEnabled)

	require.NoError(t, store.SaveSessionData(conv.ID, `{"state":"ORDERING","cart":[]}`))

	loaded, err := store.GetConversationByJID("+5511999999999")
	require.NoError(t, err)
	assert.Equal(t, `{"state":"ORDERING","cart":[]}`, loaded.SessionData)

	require.NoError(t, store.SetBotEnabled(conv.ID, false))
	loaded, err = store.GetConversation(conv.ID)
	require.NoError(t, err)
	assert.False(t, loaded.BotEnabled)
}

func TestClientLookupMiss(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetClientByPhone("store-a", "+550000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	client, err := store.CreateClient(&models.Client{StoreID: "store-a", Phone: "+550000000000"})
	require.NoError(t, err)
	assert.Equal(t, models.PlaceholderName, client.Name)

	require.NoError(t, store.UpdateClientName(client.ID, "Maria"))
	loaded, err := store.GetClientByPhone("store-a", "+550000000000")
	require.NoError(t, err)
	assert.Equal(t, "Maria", loaded.Name)
}

func TestListActiveProductsFiltersCategory(t *testing.T) {
	store := NewMemoryStore()
	store.AddProduct(&models.Product{StoreID: "store-a", Name: "X-Burguer", Price: 15, Category: models.CategorySnack})
	store.AddProduct(&models.Product{StoreID: "store-a", Name: "Pizza Calabresa", Price: 20, Category: models.CategoryPizza})
	store.AddProduct(&models.Product{StoreID: "store-b", Name: "Pizza Mussarela", Price: 18, Category: models.CategoryPizza})

	all, err := store.ListActiveProducts("store-a", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pizzas, err := store.ListActiveProducts("store-a", models.CategoryPizza)
	require.NoError(t, err)
	require.Len(t, pizzas, 1)
	assert.Equal(t, "Pizza Calabresa", pizzas[0].Name)
}
