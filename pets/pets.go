package pets

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
	"pawmart/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const petPicDir = "./uploads/petpic"

type Handler struct {
	Store *db.Store
}

func NewHandler(store *db.Store) *Handler {
	return &Handler{Store: store}
}

// CreatePet registers a pet from a multipart form. A new pet starts out
// available for adoption and is appended to the owner's pet list.
func (h *Handler) CreatePet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Unable to parse form", http.StatusBadRequest)
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	name := strings.TrimSpace(r.FormValue("name"))
	breed := strings.TrimSpace(r.FormValue("breed"))
	ageStr := r.FormValue("age")
	description := r.FormValue("description")

	if userID == "" || name == "" || breed == "" || ageStr == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	age, err := strconv.Atoi(ageStr)
	if err != nil || age < 0 {
		http.Error(w, "Invalid age", http.StatusBadRequest)
		return
	}

	pet := models.Pet{
		PetID:                utils.GenerateID(14),
		UserID:               userID,
		Name:                 name,
		Breed:                breed,
		Age:                  age,
		Description:          description,
		AvailableForAdoption: true,
		CreatedAt:            time.Now(),
	}

	if file, header, ferr := r.FormFile("image"); ferr == nil {
		defer file.Close()
		if !utils.ValidateImageFileType(w, header) {
			return
		}
		filename, serr := utils.SaveFile(file, header, petPicDir)
		if serr != nil {
			log.Println("CreatePet image save error:", serr)
			http.Error(w, "Failed to save image", http.StatusInternalServerError)
			return
		}
		pet.Image = filename
		ext := filepath.Ext(filename)
		go utils.CreateThumb(strings.TrimSuffix(filename, ext), petPicDir, ext, 300, 300)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Store.Pets.InsertOne(ctx, pet); err != nil {
		log.Println("CreatePet InsertOne error:", err)
		http.Error(w, "Failed to create pet", http.StatusInternalServerError)
		return
	}

	if _, err := h.Store.Users.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{"$addToSet": bson.M{"pets": pet.PetID}},
	); err != nil {
		log.Println("CreatePet owner update error:", err)
	}

	go mq.Emit("pet-created", models.Event{
		EntityType: "pet",
		Method:     "POST",
		EntityId:   pet.PetID,
		ItemId:     userID,
		ItemType:   "user",
	})

	utils.RespondWithJSON(w, http.StatusCreated, pet)
}

// GetPets lists pets. ?available=true restricts to the adoptable catalog.
func (h *Handler) GetPets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if r.URL.Query().Get("available") == "true" {
		filter["availableForAdoption"] = true
	}
	if userID := r.URL.Query().Get("userId"); userID != "" {
		filter["userid"] = userID
	}

	cursor, err := h.Store.Pets.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		log.Println("GetPets Find error:", err)
		http.Error(w, "Failed to fetch pets", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var pets []models.Pet
	if err := cursor.All(ctx, &pets); err != nil {
		log.Println("GetPets cursor.All error:", err)
		http.Error(w, "Failed to fetch pets", http.StatusInternalServerError)
		return
	}
	if pets == nil {
		pets = []models.Pet{}
	}

	utils.RespondWithJSON(w, http.StatusOK, pets)
}

func (h *Handler) GetPet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	petID := ps.ByName("id")
	if petID == "" {
		http.Error(w, "Pet ID is missing", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var pet models.Pet
	err := h.Store.Pets.FindOne(ctx, bson.M{"petid": petID}).Decode(&pet)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Pet not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("GetPet error:", err)
		http.Error(w, "Failed to fetch pet", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, pet)
}

type updateRequest struct {
	Name        *string `json:"name"`
	Breed       *string `json:"breed"`
	Age         *int    `json:"age"`
	Description *string `json:"description"`
}

// UpdatePet patches the mutable fields. Availability is never set here; the
// adoption workflow owns that flag.
func (h *Handler) UpdatePet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	petID := ps.ByName("id")
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if petID == "" {
		http.Error(w, "Pet ID is missing", http.StatusBadRequest)
		return
	}

	set := bson.M{}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Breed != nil {
		set["breed"] = *req.Breed
	}
	if req.Age != nil {
		if *req.Age < 0 {
			http.Error(w, "Invalid age", http.StatusBadRequest)
			return
		}
		set["age"] = *req.Age
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if len(set) == 0 {
		http.Error(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var pet models.Pet
	err := h.Store.Pets.FindOneAndUpdate(ctx,
		bson.M{"petid": petID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&pet)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Pet not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("UpdatePet error:", err)
		http.Error(w, "Failed to update pet", http.StatusInternalServerError)
		return
	}

	go mq.Emit("pet-updated", models.Event{
		EntityType: "pet",
		Method:     "PUT",
		EntityId:   pet.PetID,
	})

	utils.RespondWithJSON(w, http.StatusOK, pet)
}

// DeletePet removes a pet and detaches it from its owner's list.
func (h *Handler) DeletePet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	petID := ps.ByName("id")
	if petID == "" {
		http.Error(w, "Pet ID is missing", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var pet models.Pet
	err := h.Store.Pets.FindOneAndDelete(ctx, bson.M{"petid": petID}).Decode(&pet)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Pet not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("DeletePet error:", err)
		http.Error(w, "Failed to delete pet", http.StatusInternalServerError)
		return
	}

	if pet.UserID != "" {
		if _, err := h.Store.Users.UpdateOne(ctx,
			bson.M{"userid": pet.UserID},
			bson.M{"$pull": bson.M{"pets": pet.PetID}},
		); err != nil {
			log.Println("DeletePet owner update error:", err)
		}
	}

	go mq.Emit("pet-deleted", models.Event{
		EntityType: "pet",
		Method:     "DELETE",
		EntityId:   petID,
	})

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Pet deleted successfully"})
}
