package orders

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"pawmart/db"
	"pawmart/models"
	"pawmart/mq"
	"pawmart/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Order statuses.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
)

var orderStatuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

type Handler struct {
	Store *db.Store
}

func NewHandler(store *db.Store) *Handler {
	return &Handler{Store: store}
}

type lineInput struct {
	Product struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	} `json:"product"`
	Quantity int `json:"quantity"`
}

type placeOrderRequest struct {
	UserID    string      `json:"userId"`
	CartItems []lineInput `json:"cartItems"`
}

// ComputeTotal sums unit price x quantity over the snapshot lines.
func ComputeTotal(items []models.OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

func buildItems(lines []lineInput) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.OrderItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			Price:     l.Product.Price,
		})
	}
	return items
}

func validatePlaceOrder(req placeOrderRequest) string {
	if req.UserID == "" {
		return "Missing userId"
	}
	if len(req.CartItems) == 0 {
		return "Cart is empty"
	}
	for _, l := range req.CartItems {
		if l.Product.ID == "" || l.Quantity <= 0 || l.Product.Price < 0 {
			return "Invalid cart item"
		}
	}
	return ""
}

// PlaceOrder converts the caller's cart view into an immutable order. The
// price on each line is the caller-supplied snapshot; the total is computed
// here and never recomputed. The order is inserted before the cart is
// touched, so a crash mid-sequence leaves an order plus a stale cart but
// never a lost order. A missing cart is fine: direct orders skip the cart.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if msg := validatePlaceOrder(req); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items := buildItems(req.CartItems)
	order := models.Order{
		OrderID:     "ORD" + utils.GenerateID(11),
		UserID:      req.UserID,
		Items:       items,
		TotalAmount: ComputeTotal(items),
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}

	if _, err := h.Store.Orders.InsertOne(ctx, order); err != nil {
		log.Println("PlaceOrder InsertOne error:", err)
		http.Error(w, "Order creation failed", http.StatusInternalServerError)
		return
	}

	h.clearCart(ctx, req.UserID)

	go mq.Emit("order-placed", models.Event{
		EntityType: "order",
		Method:     "POST",
		EntityId:   order.OrderID,
		ItemId:     order.UserID,
		ItemType:   "user",
	})

	utils.RespondWithJSON(w, http.StatusCreated, order)
}

// clearCart deletes the user's cart lines, then the cart. A concurrent
// double-delete is a harmless no-op.
func (h *Handler) clearCart(ctx context.Context, userID string) {
	var cart models.Cart
	err := h.Store.Carts.FindOne(ctx, bson.M{"userid": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		return
	}
	if err != nil {
		log.Println("PlaceOrder cart lookup error:", err)
		return
	}

	if _, err := h.Store.CartItems.DeleteMany(ctx, bson.M{"cartid": cart.CartID}); err != nil {
		log.Println("PlaceOrder cart item cleanup error:", err)
		return
	}
	if _, err := h.Store.Carts.DeleteOne(ctx, bson.M{"cartid": cart.CartID}); err != nil {
		log.Println("PlaceOrder cart cleanup error:", err)
	}
}

// GetOrders lists a user's orders with ?userId=, or every order without it.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if userID := r.URL.Query().Get("userId"); userID != "" {
		filter["userid"] = userID
	}

	cursor, err := h.Store.Orders.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		log.Println("GetOrders Find error:", err)
		http.Error(w, "Failed to fetch orders", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var list []models.Order
	if err := cursor.All(ctx, &list); err != nil {
		log.Println("GetOrders cursor.All error:", err)
		http.Error(w, "Failed to fetch orders", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Order{}
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus applies a guarded status mutation. Leaving Pending for a
// fulfilment status decrements inventory exactly once; cancelling a
// never-shipped order puts it back. See machineFor for the rules.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("id")
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if orderID == "" || req.Status == "" {
		http.Error(w, "Order ID or status is missing", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	err := h.Store.Orders.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("UpdateOrderStatus lookup error:", err)
		http.Error(w, "Failed to update order status", http.StatusInternalServerError)
		return
	}

	if err := h.machineFor(&order).Validate(req.Status); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Claim the transition before running effects. The filter pins the
	// status and inventory marker we just read, so two racing updates
	// cannot both observe Pending and double-apply the decrement.
	prevApplied := order.InventoryApplied
	res, err := h.Store.Orders.UpdateOne(ctx,
		bson.M{"orderid": orderID, "status": order.Status, "inventoryApplied": prevApplied},
		bson.M{"$set": bson.M{"status": req.Status}},
	)
	if err != nil {
		log.Println("UpdateOrderStatus claim error:", err)
		http.Error(w, "Failed to update order status", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "Order was modified concurrently", http.StatusConflict)
		return
	}

	if err := h.applyTransition(ctx, w, &order, req.Status); err != nil {
		// effects did not complete; put the claimed status back
		if _, rerr := h.Store.Orders.UpdateOne(ctx,
			bson.M{"orderid": orderID},
			bson.M{"$set": bson.M{"status": order.Status}},
		); rerr != nil {
			log.Println("UpdateOrderStatus revert error:", rerr)
		}
		return
	}

	if order.InventoryApplied != prevApplied {
		if _, err := h.Store.Orders.UpdateOne(ctx,
			bson.M{"orderid": orderID},
			bson.M{"$set": bson.M{"inventoryApplied": order.InventoryApplied}},
		); err != nil {
			log.Println("UpdateOrderStatus marker error:", err)
			http.Error(w, "Failed to update order status", http.StatusInternalServerError)
			return
		}
	}
	order.Status = req.Status

	go mq.Emit("order-status-changed", models.Event{
		EntityType: "order",
		Method:     "PUT",
		EntityId:   order.OrderID,
		ItemId:     req.Status,
		ItemType:   "status",
	})

	utils.RespondWithJSON(w, http.StatusOK, order)
}

// CancelOrder is the cancel-while-pending path: the order and its lines are
// deleted outright rather than retained as a Cancelled record.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("id")
	if orderID == "" {
		http.Error(w, "Order ID is missing", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	err := h.Store.Orders.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("CancelOrder lookup error:", err)
		http.Error(w, "Failed to cancel order", http.StatusInternalServerError)
		return
	}

	if order.Status != StatusPending {
		http.Error(w, "Order cannot be canceled", http.StatusBadRequest)
		return
	}

	if _, err := h.Store.Orders.DeleteOne(ctx, bson.M{"orderid": orderID}); err != nil {
		log.Println("CancelOrder DeleteOne error:", err)
		http.Error(w, "Failed to cancel order", http.StatusInternalServerError)
		return
	}

	go mq.Emit("order-cancelled", models.Event{
		EntityType: "order",
		Method:     "DELETE",
		EntityId:   orderID,
	})

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Order canceled successfully"})
}
