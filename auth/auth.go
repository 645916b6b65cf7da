package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"pawmart/db"
	"pawmart/globals"
	"pawmart/middleware"
	"pawmart/models"
	"pawmart/mq"
	"pawmart/rdx"
	"pawmart/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 12 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

type Handler struct {
	Store *db.Store
}

func NewHandler(store *db.Store) *Handler {
	return &Handler{Store: store}
}

func sendError(w http.ResponseWriter, status int, msg string) {
	utils.RespondWithError(w, status, msg)
}

func generateAccessToken(user models.User) (string, error) {
	claims := middleware.Claims{
		Username: user.Username,
		UserID:   user.UserID,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(globals.JwtSecret)
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Refresh tokens are stored hashed; a leaked users collection does not leak
// usable tokens.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input registerRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Username == "" || input.Email == "" || len(input.Password) < 8 {
		sendError(w, http.StatusBadRequest, "Username, email and a password of at least 8 characters are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	count, err := h.Store.Users.CountDocuments(ctx, bson.M{
		"$or": []bson.M{{"username": input.Username}, {"email": input.Email}},
	})
	if err != nil {
		log.Println("Register lookup error:", err)
		sendError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	if count > 0 {
		sendError(w, http.StatusConflict, "Username or email already taken")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Println("Register hash error:", err)
		sendError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := models.User{
		UserID:   "u" + utils.GenerateID(13),
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashed),
		Role:     []string{"user"},
	}

	if _, err := h.Store.Users.InsertOne(ctx, user); err != nil {
		log.Println("Register InsertOne error:", err)
		sendError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	go mq.Emit("user-registered", models.Event{
		EntityType: "user",
		Method:     "POST",
		EntityId:   user.UserID,
	})

	user.Password = ""
	utils.SendResponse(w, http.StatusCreated, user, "Registration successful", nil)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input loginRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Username == "" || input.Password == "" {
		sendError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var storedUser models.User
	err := h.Store.Users.FindOne(ctx, bson.M{"username": input.Username}).Decode(&storedUser)
	if err != nil {
		sendError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedUser.Password), []byte(input.Password)); err != nil {
		sendError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	tokenString, err := generateAccessToken(storedUser)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to generate refresh token")
		return
	}

	_, err = h.Store.Users.UpdateOne(ctx,
		bson.M{"userid": storedUser.UserID},
		bson.M{"$set": bson.M{
			"refresh_token":  hashToken(refreshToken),
			"refresh_expiry": time.Now().Add(refreshTokenTTL),
			"last_login":     time.Now(),
		}},
	)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to store refresh token")
		return
	}

	if err := rdx.RdxHset("tokki", storedUser.UserID, tokenString); err != nil {
		log.Printf("Redis token storage failed: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, map[string]string{
		"token":        tokenString,
		"refreshToken": refreshToken,
		"userid":       storedUser.UserID,
	}, "Login successful", nil)
}

type refreshRequest struct {
	UserID       string `json:"userid"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken exchanges a valid refresh token for a new access token and
// rotates the refresh token.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.UserID == "" || input.RefreshToken == "" {
		sendError(w, http.StatusBadRequest, "userid and refreshToken are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var storedUser models.User
	err := h.Store.Users.FindOne(ctx, bson.M{"userid": input.UserID}).Decode(&storedUser)
	if err == mongo.ErrNoDocuments {
		sendError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if err != nil {
		log.Println("RefreshToken lookup error:", err)
		sendError(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	if storedUser.RefreshToken != hashToken(input.RefreshToken) || time.Now().After(storedUser.RefreshExpiry) {
		sendError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	tokenString, err := generateAccessToken(storedUser)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	nextRefresh, err := generateRefreshToken()
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to generate refresh token")
		return
	}

	if _, err := h.Store.Users.UpdateOne(ctx,
		bson.M{"userid": storedUser.UserID},
		bson.M{"$set": bson.M{
			"refresh_token":  hashToken(nextRefresh),
			"refresh_expiry": time.Now().Add(refreshTokenTTL),
		}},
	); err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to store refresh token")
		return
	}

	if err := rdx.RdxHset("tokki", storedUser.UserID, tokenString); err != nil {
		log.Printf("Redis token storage failed: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, map[string]string{
		"token":        tokenString,
		"refreshToken": nextRefresh,
	}, "Token refreshed", nil)
}

// Logout clears the refresh token and drops the cached access token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		sendError(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Store.Users.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{"$unset": bson.M{"refresh_token": "", "refresh_expiry": ""}},
	); err != nil {
		log.Println("Logout error:", err)
		sendError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	if _, err := rdx.RdxHdel("tokki", userID); err != nil {
		log.Printf("Redis token removal failed: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, nil, "Logged out", nil)
}
