package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lotus/internal/models"
	"github.com/example/lotus/internal/services"
)

func sampleItem(name, color, size string) models.CartItem {
	productID := uuid.New()
	item := models.CartItem{
		LineID:    models.LineIdentity(productID, color, size),
		ProductID: productID,
		Name:      name,
		Price:     250,
		Quantity:  1,
	}
	if color != "" {
		item.Color = &models.CartColor{Name: color}
	}
	if size != "" {
		item.Size = &models.CartSize{Label: size}
	}
	return item
}

func TestCartService_AddOrIncrement(t *testing.T) {
	db := setupDB(t)
	cart := services.NewCartService(db, nil)

	item := sampleItem("Panjabi", "Blue", "L")

	items, err := cart.AddOrIncrement("client-1", item)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)

	// Same line identity: quantity bumps by exactly one, no duplicate line.
	items, err = cart.AddOrIncrement("client-1", item)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	// Different size is a new line.
	other := item
	other.LineID = models.LineIdentity(item.ProductID, "Blue", "XL")
	other.Size = &models.CartSize{Label: "XL"}
	items, err = cart.AddOrIncrement("client-1", other)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCartService_PersistsAcrossReads(t *testing.T) {
	db := setupDB(t)
	cart := services.NewCartService(db, nil)

	_, err := cart.AddOrIncrement("client-1", sampleItem("Saree", "", ""))
	require.NoError(t, err)

	// A fresh service over the same store sees the cart: survives reloads.
	again := services.NewCartService(db, nil)
	items := again.ReadAll("client-1")
	assert.Len(t, items, 1)
	assert.Equal(t, "Saree", items[0].Name)
}

func TestCartService_SetQuantity(t *testing.T) {
	db := setupDB(t)
	cart := services.NewCartService(db, nil)

	item := sampleItem("Shirt", "", "")
	_, err := cart.AddOrIncrement("client-1", item)
	require.NoError(t, err)

	items, err := cart.SetQuantity("client-1", item.LineID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)

	// Below one is a no-op; removal is explicit.
	items, err = cart.SetQuantity("client-1", item.LineID, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestCartService_RemoveAndClear(t *testing.T) {
	db := setupDB(t)
	cart := services.NewCartService(db, nil)

	first := sampleItem("Shirt", "", "")
	second := sampleItem("Pants", "", "")
	_, err := cart.AddOrIncrement("client-1", first)
	require.NoError(t, err)
	_, err = cart.AddOrIncrement("client-1", second)
	require.NoError(t, err)

	items, err := cart.Remove("client-1", first.LineID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, second.LineID, items[0].LineID)

	require.NoError(t, cart.Clear("client-1"))
	assert.Empty(t, cart.ReadAll("client-1"))
}

func TestCartService_CorruptPayloadReadsEmpty(t *testing.T) {
	db := setupDB(t)
	cart := services.NewCartService(db, nil)

	record := models.CartRecord{ClientToken: "client-1", Payload: "{not json"}
	require.NoError(t, db.Create(&record).Error)

	assert.Empty(t, cart.ReadAll("client-1"))

	// The slot recovers on the next write.
	_, err := cart.AddOrIncrement("client-1", sampleItem("Shirt", "", ""))
	require.NoError(t, err)
	assert.Len(t, cart.ReadAll("client-1"), 1)
}

func TestCartService_NotifiesSubscribers(t *testing.T) {
	db := setupDB(t)
	cart := services.NewCartService(db, nil)

	var notified []string
	cart.Subscribe(func(clientToken string) {
		notified = append(notified, clientToken)
	})

	item := sampleItem("Shirt", "", "")
	_, err := cart.AddOrIncrement("client-1", item)
	require.NoError(t, err)
	_, err = cart.Remove("client-1", item.LineID)
	require.NoError(t, err)
	require.NoError(t, cart.Clear("client-1"))

	assert.Equal(t, []string{"client-1", "client-1", "client-1"}, notified)
}
