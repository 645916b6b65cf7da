package orders

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"pawmart/models"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetInvoice renders a PDF invoice for the order.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
		log.Println("GetInvoice lookup error:", err)
		http.Error(w, "Failed to generate invoice", http.StatusInternalServerError)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Pawmart Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Order: %s", order.OrderID))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Customer: %s", order.UserID))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Date: %s", order.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s", order.Status))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(80, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, it := range order.Items {
		pdf.CellFormat(80, 8, it.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", it.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", it.Price*float64(it.Quantity)), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(140, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", order.TotalAmount), "1", 1, "R", false, 0, "")

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", order.OrderID))
	if err := pdf.Output(w); err != nil {
		log.Println("GetInvoice render error:", err)
	}
}
