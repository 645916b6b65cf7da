package consultations

import (
	"context"
	"encoding/json"
	"errors"
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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Consultation statuses. Unlike orders and adoptions, moving between these
// has no side effects; the machine only guards the target value.
const (
	StatusPending   = "Pending"
	StatusApproved  = "Approved"
	StatusRejected  = "Rejected"
	StatusCompleted = "Completed"
)

var consultStatuses = []string{StatusPending, StatusApproved, StatusRejected, StatusCompleted}

var machine = &status.Machine{
	Entity:  "consultation",
	Allowed: consultStatuses,
}

type Handler struct {
	Store *db.Store
}

func NewHandler(store *db.Store) *Handler {
	return &Handler{Store: store}
}

type createRequest struct {
	UserID        string `json:"userId"`
	VetID         string `json:"vetId"`
	RequestedDate string `json:"requestedDate"`
}

func (h *Handler) CreateConsultation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	// vetId is optional; a consultation can be filed before a vet is assigned
	if req.UserID == "" || req.RequestedDate == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	requested, err := time.Parse(time.RFC3339, req.RequestedDate)
	if err != nil {
		http.Error(w, "Invalid requestedDate", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	consult := models.VetConsultation{
		ConsultID:     utils.GenerateID(14),
		UserID:        req.UserID,
		VetID:         req.VetID,
		RequestedDate: requested,
		Status:        StatusPending,
		CreatedAt:     time.Now(),
	}

	if _, err := h.Store.Consultations.InsertOne(ctx, consult); err != nil {
		log.Println("CreateConsultation InsertOne error:", err)
		http.Error(w, "Failed to create consultation", http.StatusInternalServerError)
		return
	}

	go mq.Emit("consultation-requested", models.Event{
		EntityType: "consultation",
		Method:     "POST",
		EntityId:   consult.ConsultID,
		ItemId:     consult.VetID,
		ItemType:   "vet",
	})

	utils.RespondWithJSON(w, http.StatusCreated, consult)
}

// GetConsultations lists a user's consultations with ?userId=, or all of
// them without it.
func (h *Handler) GetConsultations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if userID := r.URL.Query().Get("userId"); userID != "" {
		filter["userid"] = userID
	}

	cursor, err := h.Store.Consultations.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		log.Println("GetConsultations Find error:", err)
		http.Error(w, "Failed to fetch consultations", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var list []models.VetConsultation
	if err := cursor.All(ctx, &list); err != nil {
		log.Println("GetConsultations cursor.All error:", err)
		http.Error(w, "Failed to fetch consultations", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.VetConsultation{}
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateConsultationStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	consultID := ps.ByName("id")
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if consultID == "" || req.Status == "" {
		http.Error(w, "Consultation ID or status is missing", http.StatusBadRequest)
		return
	}

	if err := machine.Validate(req.Status); err != nil {
		if errors.Is(err, status.ErrInvalidStatus) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to update consultation", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var consult models.VetConsultation
	err := h.Store.Consultations.FindOneAndUpdate(ctx,
		bson.M{"consultid": consultID},
		bson.M{"$set": bson.M{"status": req.Status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&consult)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Consultation not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("UpdateConsultationStatus error:", err)
		http.Error(w, "Failed to update consultation", http.StatusInternalServerError)
		return
	}

	go mq.Emit("consultation-status-changed", models.Event{
		EntityType: "consultation",
		Method:     "PUT",
		EntityId:   consult.ConsultID,
		ItemId:     req.Status,
		ItemType:   "status",
	})

	utils.RespondWithJSON(w, http.StatusOK, consult)
}
