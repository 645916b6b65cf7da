package adoption

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"pawmart/db"
	"pawmart/models"
	"pawmart/mq"
	"pawmart/status"
	"pawmart/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Adoption request statuses. A request only ever leaves Pending once; the
// record is deleted and the outcome applied to the pet.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

type Handler struct {
	Store *db.Store
}

func NewHandler(store *db.Store) *Handler {
	return &Handler{Store: store}
}

type createRequest struct {
	PetID   string `json:"petId"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// CreateRequest files a claim on an available pet. The pet is hidden from
// further requests immediately, before any approval happens.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if req.PetID == "" || req.UserID == "" || req.Message == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var pet models.Pet
	err := h.Store.Pets.FindOne(ctx, bson.M{"petid": req.PetID}).Decode(&pet)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Pet not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("CreateRequest pet lookup error:", err)
		http.Error(w, "Failed to create adoption request", http.StatusInternalServerError)
		return
	}
	if !pet.AvailableForAdoption {
		http.Error(w, "Pet is not available for adoption", http.StatusBadRequest)
		return
	}

	if _, err := h.Store.Pets.UpdateOne(ctx,
		bson.M{"petid": req.PetID},
		bson.M{"$set": bson.M{"availableForAdoption": false}},
	); err != nil {
		log.Println("CreateRequest pet update error:", err)
		http.Error(w, "Failed to create adoption request", http.StatusInternalServerError)
		return
	}

	request := models.AdoptionRequest{
		RequestID: utils.GenerateID(14),
		PetID:     req.PetID,
		UserID:    req.UserID,
		Message:   req.Message,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	if _, err := h.Store.Adoptions.InsertOne(ctx, request); err != nil {
		log.Println("CreateRequest InsertOne error:", err)
		http.Error(w, "Failed to create adoption request", http.StatusInternalServerError)
		return
	}

	go mq.Emit("adoption-requested", models.Event{
		EntityType: "adoption",
		Method:     "POST",
		EntityId:   request.RequestID,
		ItemId:     request.PetID,
		ItemType:   "pet",
	})

	utils.RespondWithJSON(w, http.StatusCreated, request)
}

// ListRequests returns every request joined with its pet.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := h.Store.Adoptions.Find(ctx, bson.M{})
	if err != nil {
		log.Println("ListRequests Find error:", err)
		http.Error(w, "Failed to fetch adoption requests", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var requests []models.AdoptionRequest
	if err := cursor.All(ctx, &requests); err != nil {
		log.Println("ListRequests cursor.All error:", err)
		http.Error(w, "Failed to fetch adoption requests", http.StatusInternalServerError)
		return
	}

	views := make([]models.AdoptionView, 0, len(requests))
	for _, req := range requests {
		view := models.AdoptionView{AdoptionRequest: req}
		var pet models.Pet
		if err := h.Store.Pets.FindOne(ctx, bson.M{"petid": req.PetID}).Decode(&pet); err == nil {
			view.Pet = &pet
		}
		views = append(views, view)
	}

	utils.RespondWithJSON(w, http.StatusOK, views)
}

// machineFor builds the guarded mutation for one request: Rejected restores
// the pet to the catalog, Approved removes it entirely.
func (h *Handler) machineFor(request *models.AdoptionRequest) *status.Machine {
	return &status.Machine{
		Entity:  "adoption request",
		Allowed: []string{StatusApproved, StatusRejected},
		Rules: []status.Rule{
			{
				When: func(from, to string) bool { return to == StatusRejected },
				Run: func(ctx context.Context, from, to string) error {
					return h.restorePet(ctx, request.PetID)
				},
			},
			{
				When: func(from, to string) bool { return to == StatusApproved },
				Run: func(ctx context.Context, from, to string) error {
					return h.finalizeAdoption(ctx, request.PetID)
				},
			},
		},
	}
}

func (h *Handler) restorePet(ctx context.Context, petID string) error {
	_, err := h.Store.Pets.UpdateOne(ctx,
		bson.M{"petid": petID},
		bson.M{"$set": bson.M{"availableForAdoption": true}},
	)
	return err
}

// finalizeAdoption deletes the pet and pulls it from the previous owner's
// list. The adoption is final at this point.
func (h *Handler) finalizeAdoption(ctx context.Context, petID string) error {
	var pet models.Pet
	err := h.Store.Pets.FindOneAndDelete(ctx, bson.M{"petid": petID}).Decode(&pet)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return err
	}
	if pet.UserID != "" {
		if _, err := h.Store.Users.UpdateOne(ctx,
			bson.M{"userid": pet.UserID},
			bson.M{"$pull": bson.M{"pets": pet.PetID}},
		); err != nil {
			log.Println("finalizeAdoption owner update error:", err)
		}
	}
	return nil
}

type resolveRequest struct {
	Status string `json:"status"`
}

// ResolveRequest applies the terminal outcome. The decision is validated
// before anything is touched; an already-resolved (deleted) request reports
// NotFound with no side effect.
func (h *Handler) ResolveRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := ps.ByName("id")
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if requestID == "" || req.Status == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	if err := h.machineFor(&models.AdoptionRequest{}).Validate(req.Status); err != nil {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var stored models.AdoptionRequest
	err := h.Store.Adoptions.FindOneAndDelete(ctx, bson.M{"requestid": requestID}).Decode(&stored)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Adoption request not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("ResolveRequest delete error:", err)
		http.Error(w, "Failed to resolve adoption request", http.StatusInternalServerError)
		return
	}

	if err := h.machineFor(&stored).Transition(ctx, stored.Status, req.Status); err != nil {
		log.Println("ResolveRequest transition error:", err)
		http.Error(w, "Failed to resolve adoption request", http.StatusInternalServerError)
		return
	}

	stored.Status = req.Status

	go mq.Emit("adoption-resolved", models.Event{
		EntityType: "adoption",
		Method:     "PUT",
		EntityId:   stored.RequestID,
		ItemId:     req.Status,
		ItemType:   "status",
	})

	utils.RespondWithJSON(w, http.StatusOK, stored)
}
