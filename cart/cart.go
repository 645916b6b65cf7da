package cart

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"pawmart/db"
	"pawmart/models"
	"pawmart/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Handler struct {
	Store *db.Store
}

func NewHandler(store *db.Store) *Handler {
	return &Handler{Store: store}
}

type addRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// AddToCart creates the user's cart on first use, then increments the line
// for the product or inserts it. Both writes are atomic upserts so two
// concurrent adds for the same product cannot lose an increment. Stock is
// deliberately not checked here; that happens at fulfilment time.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.ProductID == "" || req.Quantity <= 0 {
		http.Error(w, "Missing or invalid fields", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Find or create the cart for the user
	after := options.After
	var cart models.Cart
	err := h.Store.Carts.FindOneAndUpdate(ctx,
		bson.M{"userid": req.UserID},
		bson.M{"$setOnInsert": bson.M{
			"cartid":    utils.GenerateID(14),
			"userid":    req.UserID,
			"createdAt": time.Now(),
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(after),
	).Decode(&cart)
	if err != nil {
		log.Println("AddToCart cart upsert error:", err)
		http.Error(w, "Failed to add to cart", http.StatusInternalServerError)
		return
	}

	// Upsert the line: increment quantity if it exists, insert otherwise
	var line models.CartItem
	err = h.Store.CartItems.FindOneAndUpdate(ctx,
		bson.M{"cartid": cart.CartID, "productid": req.ProductID},
		bson.M{
			"$inc": bson.M{"quantity": req.Quantity},
			"$setOnInsert": bson.M{
				"itemid":  utils.GenerateID(14),
				"userid":  req.UserID,
				"addedAt": time.Now(),
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(after),
	).Decode(&line)
	if err != nil {
		log.Println("AddToCart line upsert error:", err)
		http.Error(w, "Failed to add to cart", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, line)
}

// GetCart returns the user's cart lines joined with product details. A user
// without a cart gets an empty list, not an error.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var cart models.Cart
	err := h.Store.Carts.FindOne(ctx, bson.M{"userid": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithJSON(w, http.StatusOK, []models.CartLine{})
		return
	}
	if err != nil {
		log.Println("GetCart cart lookup error:", err)
		http.Error(w, "Could not retrieve cart", http.StatusInternalServerError)
		return
	}

	cursor, err := h.Store.CartItems.Find(ctx, bson.M{"cartid": cart.CartID})
	if err != nil {
		log.Println("GetCart Find error:", err)
		http.Error(w, "Could not retrieve cart", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var items []models.CartItem
	if err := cursor.All(ctx, &items); err != nil {
		log.Println("GetCart cursor.All error:", err)
		http.Error(w, "Error reading cart data", http.StatusInternalServerError)
		return
	}

	lines, err := h.joinProducts(ctx, items)
	if err != nil {
		log.Println("GetCart product join error:", err)
		http.Error(w, "Error reading cart data", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, lines)
}

type removeRequest struct {
	UserID     string `json:"userId"`
	CartItemID string `json:"cartItemId"`
}

// RemoveFromCart deletes a single line. The line must belong to an existing
// cart owned by the caller.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.CartItemID == "" {
		http.Error(w, "Missing or invalid fields", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var cart models.Cart
	err := h.Store.Carts.FindOne(ctx, bson.M{"userid": req.UserID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Cart not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("RemoveFromCart cart lookup error:", err)
		http.Error(w, "Failed to remove item from cart", http.StatusInternalServerError)
		return
	}

	res, err := h.Store.CartItems.DeleteOne(ctx, bson.M{"itemid": req.CartItemID, "cartid": cart.CartID})
	if err != nil {
		log.Println("RemoveFromCart DeleteOne error:", err)
		http.Error(w, "Failed to remove item from cart", http.StatusInternalServerError)
		return
	}
	if res.DeletedCount == 0 {
		http.Error(w, "Cart item not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
}

func (h *Handler) joinProducts(ctx context.Context, items []models.CartItem) ([]models.CartLine, error) {
	lines := make([]models.CartLine, 0, len(items))
	if len(items) == 0 {
		return lines, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	cursor, err := h.Store.Products.Find(ctx, bson.M{"productid": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ProductID] = &products[i]
	}

	for _, it := range items {
		lines = append(lines, models.CartLine{CartItem: it, Product: byID[it.ProductID]})
	}
	return lines, nil
}
