package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pawmart/db/dbtest"
	"pawmart/models"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestComputeTotal(t *testing.T) {
	items := []models.OrderItem{
		{ProductID: "p1", Name: "Chew Toy", Quantity: 2, Price: 9.50},
		{ProductID: "p2", Name: "Kibble", Quantity: 1, Price: 24.99},
	}
	assert.InDelta(t, 43.99, ComputeTotal(items), 0.0001)
	assert.Zero(t, ComputeTotal(nil))
}

func TestValidatePlaceOrder(t *testing.T) {
	valid := placeOrderRequest{UserID: "u1"}
	valid.CartItems = []lineInput{{Quantity: 1}}
	valid.CartItems[0].Product.ID = "p1"
	valid.CartItems[0].Product.Price = 5

	assert.Empty(t, validatePlaceOrder(valid))

	noUser := valid
	noUser.UserID = ""
	assert.Equal(t, "Missing userId", validatePlaceOrder(noUser))

	empty := placeOrderRequest{UserID: "u1"}
	assert.Equal(t, "Cart is empty", validatePlaceOrder(empty))

	badQty := valid
	badQty.CartItems = []lineInput{{Quantity: 0}}
	badQty.CartItems[0].Product.ID = "p1"
	assert.Equal(t, "Invalid cart item", validatePlaceOrder(badQty))

	badPrice := valid
	badPrice.CartItems = []lineInput{{Quantity: 1}}
	badPrice.CartItems[0].Product.ID = "p1"
	badPrice.CartItems[0].Product.Price = -1
	assert.Equal(t, "Invalid cart item", validatePlaceOrder(badPrice))
}

func TestDecrementFires(t *testing.T) {
	assert.True(t, decrementFires(StatusPending, StatusProcessing, false))
	assert.True(t, decrementFires(StatusPending, StatusShipped, false))
	assert.True(t, decrementFires(StatusPending, StatusDelivered, false))

	// only once
	assert.False(t, decrementFires(StatusPending, StatusProcessing, true))
	// only when leaving Pending
	assert.False(t, decrementFires(StatusProcessing, StatusShipped, false))
	// cancellation never decrements
	assert.False(t, decrementFires(StatusPending, StatusCancelled, false))
}

func TestRestockFires(t *testing.T) {
	assert.True(t, restockFires(StatusProcessing, StatusCancelled, true))

	// nothing was taken, nothing to put back
	assert.False(t, restockFires(StatusPending, StatusCancelled, false))
	// shipped goods keep their decrement
	assert.False(t, restockFires(StatusShipped, StatusCancelled, true))
	assert.False(t, restockFires(StatusDelivered, StatusCancelled, true))
	assert.False(t, restockFires(StatusProcessing, StatusShipped, true))
}

func TestMachineRejectsUnknownStatus(t *testing.T) {
	h := NewHandler(nil)
	order := models.Order{OrderID: "ORD1", Status: StatusPending}
	err := h.machineFor(&order).Validate("Teleported")
	require.Error(t, err)
}

func TestPlaceOrderRejectsBadInput(t *testing.T) {
	h := NewHandler(nil)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", "{", "Invalid JSON payload"},
		{"missing user", `{"cartItems":[{"product":{"id":"p1","price":1},"quantity":1}]}`, "Missing userId"},
		{"empty cart", `{"userId":"u1","cartItems":[]}`, "Cart is empty"},
		{"zero quantity", `{"userId":"u1","cartItems":[{"product":{"id":"p1","price":1},"quantity":0}]}`, "Invalid cart item"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.PlaceOrder(rec, req, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

// The order is created from the caller's snapshot with a computed total, and
// the user's cart is emptied afterwards.
func TestPlaceOrderSnapshotsTotalAndClearsCart(t *testing.T) {
	store := dbtest.NewStore()
	h := NewHandler(store)
	ctx := context.Background()

	_, err := store.Carts.InsertOne(ctx, models.Cart{CartID: "c1", UserID: "u1"})
	require.NoError(t, err)
	_, err = store.CartItems.InsertOne(ctx, models.CartItem{ItemID: "i1", CartID: "c1", UserID: "u1", ProductID: "p1", Quantity: 2})
	require.NoError(t, err)

	body := `{"userId":"u1","cartItems":[
		{"product":{"id":"p1","name":"Chew Toy","price":9.5},"quantity":2},
		{"product":{"id":"p2","name":"Kibble","price":24.99},"quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.PlaceOrder(rec, req, nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, StatusPending, order.Status)
	assert.InDelta(t, 43.99, order.TotalAmount, 0.0001)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "p1", order.Items[0].ProductID)

	orders, err := store.Orders.CountDocuments(ctx, bson.M{"userid": "u1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, orders)

	carts, err := store.Carts.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, carts)
	lines, err := store.CartItems.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, lines)
}

func TestCancelOrderDeletesPendingOnly(t *testing.T) {
	store := dbtest.NewStore()
	h := NewHandler(store)
	ctx := context.Background()

	_, err := store.Orders.InsertOne(ctx, models.Order{OrderID: "ORD1", UserID: "u1", Status: StatusPending})
	require.NoError(t, err)
	_, err = store.Orders.InsertOne(ctx, models.Order{OrderID: "ORD2", UserID: "u1", Status: StatusProcessing})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/orders/ORD1", nil)
	rec := httptest.NewRecorder()
	h.CancelOrder(rec, req, httprouter.Params{{Key: "id", Value: "ORD1"}})
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/orders/ORD2", nil)
	rec = httptest.NewRecorder()
	h.CancelOrder(rec, req, httprouter.Params{{Key: "id", Value: "ORD2"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	n, err := store.Orders.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUpdateOrderStatusRejectsMissingStatus(t *testing.T) {
	h := NewHandler(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/orders/ORD1/status", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.UpdateOrderStatus(rec, req, httprouter.Params{{Key: "id", Value: "ORD1"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelOrderRejectsMissingID(t *testing.T) {
	h := NewHandler(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/orders/", nil)
	rec := httptest.NewRecorder()
	h.CancelOrder(rec, req, httprouter.Params{{Key: "id", Value: ""}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
