package orders

import (
	"context"
	"errors"
	"log"
	"net/http"

	"pawmart/models"
	"pawmart/status"

	"go.mongodb.org/mongo-driver/bson"
)

// fulfilling reports whether a target status consumes inventory.
func fulfilling(to string) bool {
	return to == StatusProcessing || to == StatusShipped || to == StatusDelivered
}

// decrementFires: the one-shot inventory decrement when an order leaves
// Pending for a fulfilment status.
func decrementFires(from, to string, applied bool) bool {
	return from == StatusPending && fulfilling(to) && !applied
}

// restockFires: cancelling an order that consumed inventory but never
// shipped puts the stock back. Shipped or delivered orders moved to
// Cancelled keep their decrement.
func restockFires(from, to string, applied bool) bool {
	return to == StatusCancelled && from == StatusProcessing && applied
}

// machineFor builds the status machine for one order. The effect closures
// mutate order.InventoryApplied; the caller persists it with the status.
func (h *Handler) machineFor(order *models.Order) *status.Machine {
	return &status.Machine{
		Entity:  "order",
		Allowed: orderStatuses,
		Rules: []status.Rule{
			{
				When: func(from, to string) bool { return decrementFires(from, to, order.InventoryApplied) },
				Run: func(ctx context.Context, from, to string) error {
					if err := h.decrementInventory(ctx, order.Items); err != nil {
						return err
					}
					order.InventoryApplied = true
					return nil
				},
			},
			{
				When: func(from, to string) bool { return restockFires(from, to, order.InventoryApplied) },
				Run: func(ctx context.Context, from, to string) error {
					if err := h.restockInventory(ctx, order.Items); err != nil {
						return err
					}
					order.InventoryApplied = false
					return nil
				},
			},
		},
	}
}

// applyTransition runs the machine and writes the error response itself on
// failure so the handler can just return.
func (h *Handler) applyTransition(ctx context.Context, w http.ResponseWriter, order *models.Order, to string) error {
	err := h.machineFor(order).Transition(ctx, order.Status, to)
	if err == nil {
		return nil
	}
	if errors.Is(err, status.ErrInvalidStatus) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return err
	}
	log.Println("order transition error:", err)
	http.Error(w, "Failed to update order status", http.StatusInternalServerError)
	return err
}

// decrementInventory takes each line's quantity off the product, guarded so
// stock never goes negative: the $gte filter only matches when enough is on
// hand; otherwise the count is clamped to zero and the shortfall logged.
func (h *Handler) decrementInventory(ctx context.Context, items []models.OrderItem) error {
	for _, it := range items {
		res, err := h.Store.Products.UpdateOne(ctx,
			bson.M{"productid": it.ProductID, "quantity": bson.M{"$gte": it.Quantity}},
			bson.M{"$inc": bson.M{"quantity": -it.Quantity}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			log.Printf("inventory: clamping %s to zero (requested %d)", it.ProductID, it.Quantity)
			if _, err := h.Store.Products.UpdateOne(ctx,
				bson.M{"productid": it.ProductID},
				bson.M{"$set": bson.M{"quantity": 0}},
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Handler) restockInventory(ctx context.Context, items []models.OrderItem) error {
	for _, it := range items {
		if _, err := h.Store.Products.UpdateOne(ctx,
			bson.M{"productid": it.ProductID},
			bson.M{"$inc": bson.M{"quantity": it.Quantity}},
		); err != nil {
			return err
		}
	}
	return nil
}
