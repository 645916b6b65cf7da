package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pawmart/db"
	"pawmart/db/dbtest"
	"pawmart/models"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func seedOrder(t *testing.T, store *db.Store, productQty, orderQty int) {
	t.Helper()
	ctx := context.Background()
	_, err := store.Products.InsertOne(ctx, models.Product{ProductID: "p1", Name: "Kibble", Price: 5, Quantity: productQty})
	require.NoError(t, err)
	_, err = store.Orders.InsertOne(ctx, models.Order{
		OrderID: "ORD1",
		UserID:  "u1",
		Status:  StatusPending,
		Items:   []models.OrderItem{{ProductID: "p1", Name: "Kibble", Quantity: orderQty, Price: 5}},
	})
	require.NoError(t, err)
}

func putStatus(t *testing.T, h *Handler, status string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/orders/ORD1/status",
		strings.NewReader(`{"status":"`+status+`"}`))
	rec := httptest.NewRecorder()
	h.UpdateOrderStatus(rec, req, httprouter.Params{{Key: "id", Value: "ORD1"}})
	return rec
}

func productQty(t *testing.T, store *db.Store) int {
	t.Helper()
	var product models.Product
	require.NoError(t, store.Products.FindOne(context.Background(), bson.M{"productid": "p1"}).Decode(&product))
	return product.Quantity
}

// Leaving Pending decrements stock exactly once; further transitions leave it
// alone.
func TestUpdateOrderStatusDecrementsInventoryOnce(t *testing.T) {
	store := dbtest.NewStore()
	h := NewHandler(store)
	seedOrder(t, store, 10, 3)

	require.Equal(t, http.StatusOK, putStatus(t, h, StatusProcessing).Code)
	assert.Equal(t, 7, productQty(t, store))

	require.Equal(t, http.StatusOK, putStatus(t, h, StatusShipped).Code)
	assert.Equal(t, 7, productQty(t, store))

	require.Equal(t, http.StatusOK, putStatus(t, h, StatusDelivered).Code)
	assert.Equal(t, 7, productQty(t, store))
}

// When stock is short the quantity clamps at zero instead of going negative.
func TestDecrementClampsAtZero(t *testing.T) {
	store := dbtest.NewStore()
	h := NewHandler(store)
	seedOrder(t, store, 1, 3)

	require.Equal(t, http.StatusOK, putStatus(t, h, StatusProcessing).Code)
	assert.Equal(t, 0, productQty(t, store))
}

// Cancelling an order that consumed stock but never shipped puts it back.
func TestCancelAfterProcessingRestocks(t *testing.T) {
	store := dbtest.NewStore()
	h := NewHandler(store)
	seedOrder(t, store, 10, 3)

	require.Equal(t, http.StatusOK, putStatus(t, h, StatusProcessing).Code)
	require.Equal(t, 7, productQty(t, store))

	require.Equal(t, http.StatusOK, putStatus(t, h, StatusCancelled).Code)
	assert.Equal(t, 10, productQty(t, store))

	var order models.Order
	require.NoError(t, store.Orders.FindOne(context.Background(), bson.M{"orderid": "ORD1"}).Decode(&order))
	assert.Equal(t, StatusCancelled, order.Status)
	assert.False(t, order.InventoryApplied)
}

// movedOrders simulates a concurrent transition landing between the handler's
// read and its claim.
type movedOrders struct {
	db.Collection
	moved bool
}

func (c *movedOrders) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	res := c.Collection.FindOne(ctx, filter, opts...)
	if !c.moved {
		c.moved = true
		_, _ = c.Collection.UpdateOne(ctx, filter,
			bson.M{"$set": bson.M{"status": StatusProcessing, "inventoryApplied": true}})
	}
	return res
}

// A transition whose read went stale must conflict, not decrement again.
func TestUpdateOrderStatusConflictsOnStaleRead(t *testing.T) {
	store := dbtest.NewStore()
	seedOrder(t, store, 10, 3)
	store.Orders = &movedOrders{Collection: store.Orders}
	h := NewHandler(store)

	rec := putStatus(t, h, StatusShipped)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 10, productQty(t, store))
}
