package orders

import (
	"context"
	"log"
	"net/http"
	"time"

	"pawmart/models"

	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetPickupQR returns a PNG QR code of the order id, scanned at pickup.
func (h *Handler) GetPickupQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
		log.Println("GetPickupQR lookup error:", err)
		http.Error(w, "Failed to generate QR", http.StatusInternalServerError)
		return
	}

	png, err := qrcode.Encode("pawmart:order:"+order.OrderID, qrcode.Medium, 256)
	if err != nil {
		log.Println("GetPickupQR encode error:", err)
		http.Error(w, "Failed to generate QR", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
