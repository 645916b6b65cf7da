package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pawmart/db/dbtest"
	"pawmart/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestAddToCartRejectsBadInput(t *testing.T) {
	h := NewHandler(nil)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", "{"},
		{"missing user", `{"productId":"p1","quantity":1}`},
		{"missing product", `{"userId":"u1","quantity":1}`},
		{"zero quantity", `{"userId":"u1","productId":"p1","quantity":0}`},
		{"negative quantity", `{"userId":"u1","productId":"p1","quantity":-2}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.AddToCart(rec, req, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// Two adds of the same product merge into one line with the summed quantity,
// and only one cart ever exists for the user.
func TestAddToCartMergesLines(t *testing.T) {
	store := dbtest.NewStore()
	h := NewHandler(store)
	ctx := context.Background()

	add := func(q int) *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"userId":"u1","productId":"p1","quantity":%d}`, q)
		req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.AddToCart(rec, req, nil)
		return rec
	}

	require.Equal(t, http.StatusCreated, add(2).Code)
	require.Equal(t, http.StatusCreated, add(3).Code)

	lines, err := store.CartItems.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, lines)

	var line models.CartItem
	require.NoError(t, store.CartItems.FindOne(ctx, bson.M{"productid": "p1"}).Decode(&line))
	assert.Equal(t, 5, line.Quantity)
	assert.NotEmpty(t, line.ItemID)

	carts, err := store.Carts.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, carts)
}

func TestGetCartJoinsProducts(t *testing.T) {
	store := dbtest.NewStore()
	h := NewHandler(store)
	ctx := context.Background()

	_, err := store.Products.InsertOne(ctx, models.Product{ProductID: "p1", Name: "Chew Toy", Price: 9.5, Quantity: 10})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/cart",
		strings.NewReader(`{"userId":"u1","productId":"p1","quantity":2}`))
	rec := httptest.NewRecorder()
	h.AddToCart(rec, req, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/cart?userId=u1", nil)
	rec = httptest.NewRecorder()
	h.GetCart(rec, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cartLines []models.CartLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cartLines))
	require.Len(t, cartLines, 1)
	assert.Equal(t, 2, cartLines[0].Quantity)
	require.NotNil(t, cartLines[0].Product)
	assert.Equal(t, "Chew Toy", cartLines[0].Product.Name)
	assert.Equal(t, 9.5, cartLines[0].Product.Price)
}

func TestGetCartWithoutCartIsEmpty(t *testing.T) {
	h := NewHandler(dbtest.NewStore())

	req := httptest.NewRequest(http.MethodGet, "/api/cart?userId=u1", nil)
	rec := httptest.NewRecorder()
	h.GetCart(rec, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRemoveFromCartDeletesLine(t *testing.T) {
	store := dbtest.NewStore()
	h := NewHandler(store)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodPost, "/api/cart",
		strings.NewReader(`{"userId":"u1","productId":"p1","quantity":1}`))
	rec := httptest.NewRecorder()
	h.AddToCart(rec, req, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var line models.CartItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &line))

	body := fmt.Sprintf(`{"userId":"u1","cartItemId":"%s"}`, line.ItemID)
	req = httptest.NewRequest(http.MethodDelete, "/api/cart", strings.NewReader(body))
	rec = httptest.NewRecorder()
	h.RemoveFromCart(rec, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	n, err := store.CartItems.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestGetCartRequiresUserID(t *testing.T) {
	h := NewHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	h.GetCart(rec, req, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing userId")
}

func TestRemoveFromCartRejectsBadInput(t *testing.T) {
	h := NewHandler(nil)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", "{"},
		{"missing user", `{"cartItemId":"i1"}`},
		{"missing item", `{"userId":"u1"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/cart", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.RemoveFromCart(rec, req, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
