package products

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pawmart/db"
	"pawmart/models"
	"pawmart/mq"
	"pawmart/rdx"
	"pawmart/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productPicDir = "./uploads/productpic"

type Handler struct {
	Store *db.Store
}

func NewHandler(store *db.Store) *Handler {
	return &Handler{Store: store}
}

// CreateProduct adds a catalog item from a multipart form.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Unable to parse form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	priceStr := r.FormValue("price")
	quantityStr := r.FormValue("quantity")
	description := r.FormValue("description")

	if name == "" || priceStr == "" || quantityStr == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil || price < 0 {
		http.Error(w, "Invalid price", http.StatusBadRequest)
		return
	}
	quantity, err := strconv.Atoi(quantityStr)
	if err != nil || quantity < 0 {
		http.Error(w, "Invalid quantity", http.StatusBadRequest)
		return
	}

	now := time.Now()
	product := models.Product{
		ProductID:   utils.GenerateID(14),
		Name:        name,
		Price:       price,
		Quantity:    quantity,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if file, header, ferr := r.FormFile("image"); ferr == nil {
		defer file.Close()
		if !utils.ValidateImageFileType(w, header) {
			return
		}
		filename, serr := utils.SaveFile(file, header, productPicDir)
		if serr != nil {
			log.Println("CreateProduct image save error:", serr)
			http.Error(w, "Failed to save image", http.StatusInternalServerError)
			return
		}
		product.Image = filename
		ext := filepath.Ext(filename)
		go utils.CreateThumb(strings.TrimSuffix(filename, ext), productPicDir, ext, 300, 300)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Store.Products.InsertOne(ctx, product); err != nil {
		log.Println("CreateProduct InsertOne error:", err)
		http.Error(w, "Failed to create product", http.StatusInternalServerError)
		return
	}

	go mq.Emit("product-created", models.Event{
		EntityType: "product",
		Method:     "POST",
		EntityId:   product.ProductID,
	})

	utils.RespondWithJSON(w, http.StatusCreated, product)
}

// GetProducts lists the catalog, newest first.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := h.Store.Products.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		log.Println("GetProducts Find error:", err)
		http.Error(w, "Failed to fetch products", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var list []models.Product
	if err := cursor.All(ctx, &list); err != nil {
		log.Println("GetProducts cursor.All error:", err)
		http.Error(w, "Failed to fetch products", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Product{}
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}

func cacheKey(productID string) string {
	return "product:" + productID
}

// GetProduct serves a single product, Redis first. Cache misses fall through
// to Mongo and repopulate with a short TTL.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	productID := ps.ByName("id")
	if productID == "" {
		http.Error(w, "Product ID is missing", http.StatusBadRequest)
		return
	}

	if cached, err := rdx.RdxGet(cacheKey(productID)); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(cached))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	err := h.Store.Products.FindOne(ctx, bson.M{"productid": productID}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("GetProduct error:", err)
		http.Error(w, "Failed to fetch product", http.StatusInternalServerError)
		return
	}

	if data, merr := json.Marshal(product); merr == nil {
		_ = rdx.SetWithExpiry(cacheKey(productID), string(data), 5*time.Minute)
	}

	utils.RespondWithJSON(w, http.StatusOK, product)
}

type updateRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Description *string  `json:"description"`
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	productID := ps.ByName("id")
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if productID == "" {
		http.Error(w, "Product ID is missing", http.StatusBadRequest)
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			http.Error(w, "Invalid price", http.StatusBadRequest)
			return
		}
		set["price"] = *req.Price
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			http.Error(w, "Invalid quantity", http.StatusBadRequest)
			return
		}
		set["quantity"] = *req.Quantity
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if len(set) == 1 {
		http.Error(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	err := h.Store.Products.FindOneAndUpdate(ctx,
		bson.M{"productid": productID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("UpdateProduct error:", err)
		http.Error(w, "Failed to update product", http.StatusInternalServerError)
		return
	}

	_, _ = rdx.RdxDel(cacheKey(productID))

	go mq.Emit("product-updated", models.Event{
		EntityType: "product",
		Method:     "PUT",
		EntityId:   productID,
	})

	utils.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a catalog item unless it still appears in a cart or
// an unfinished order.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	productID := ps.ByName("id")
	if productID == "" {
		http.Error(w, "Product ID is missing", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	inCarts, err := h.Store.CartItems.CountDocuments(ctx, bson.M{"productid": productID})
	if err != nil {
		log.Println("DeleteProduct cart check error:", err)
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}
	inOrders, err := h.Store.Orders.CountDocuments(ctx, bson.M{
		"items.productid": productID,
		"status":          bson.M{"$nin": []string{"Delivered", "Cancelled"}},
	})
	if err != nil {
		log.Println("DeleteProduct order check error:", err)
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}
	if inCarts > 0 || inOrders > 0 {
		http.Error(w, "Product is referenced by carts or open orders", http.StatusBadRequest)
		return
	}

	res, err := h.Store.Products.DeleteOne(ctx, bson.M{"productid": productID})
	if err != nil {
		log.Println("DeleteProduct error:", err)
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}
	if res.DeletedCount == 0 {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	_, _ = rdx.RdxDel(cacheKey(productID))

	go mq.Emit("product-deleted", models.Event{
		EntityType: "product",
		Method:     "DELETE",
		EntityId:   productID,
	})

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}
