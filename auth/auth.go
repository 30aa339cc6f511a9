package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"emporia/apperrors"
	"emporia/db"
	"emporia/middleware"
	"emporia/models"
	"emporia/rdx"
	"emporia/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const handlerTimeout = 10 * time.Second

// Handler owns the credential and OAuth login flows.
type Handler struct {
	DB     *db.Database
	Auth   *middleware.Auth
	Tokens *rdx.TokenStore
}

func NewHandler(database *db.Database, auth *middleware.Auth, tokens *rdx.TokenStore) *Handler {
	return &Handler{DB: database, Auth: auth, Tokens: tokens}
}

// Register creates a credentials account. Email is unique; the index is the
// authority, so a concurrent duplicate registration still gets a conflict.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid JSON payload"))
		return
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		utils.RespondError(w, apperrors.InvalidInput("name, email and password are required"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	user := models.User{
		Name:         input.Name,
		Email:        strings.ToLower(input.Email),
		PasswordHash: string(hash),
		Image:        "",
		IsAdmin:      false,
		CreatedAt:    time.Now(),
	}

	result, err := h.DB.Users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondError(w, apperrors.Conflict("an account with this email already exists"))
			return
		}
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "User created successfully",
		"userId":  result.InsertedID,
	})
}

// Login exchanges credentials for an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid JSON payload"))
		return
	}
	if input.Email == "" || input.Password == "" {
		utils.RespondError(w, apperrors.InvalidInput("email and password are required"))
		return
	}

	var user models.User
	err := h.DB.Users.FindOne(ctx, bson.M{"email": strings.ToLower(input.Email)}).Decode(&user)
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("invalid email or password"))
		return
	}

	if user.PasswordHash == "" {
		// OAuth-only account: there is no password to check against.
		utils.RespondError(w, apperrors.InvalidInput("this account uses Google login"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		utils.RespondError(w, apperrors.Unauthorized("invalid email or password"))
		return
	}

	h.issueToken(w, user)
}

// OAuth signs a Google identity in, creating the account on first login and
// linking the external id to an existing email account when present.
func (h *Handler) OAuth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var input struct {
		GoogleID string `json:"googleId"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Image    string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid JSON payload"))
		return
	}
	if input.GoogleID == "" || input.Email == "" {
		utils.RespondError(w, apperrors.InvalidInput("googleId and email are required"))
		return
	}

	email := strings.ToLower(input.Email)
	var user models.User
	err := h.DB.Users.FindOne(ctx, bson.M{"googleId": input.GoogleID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		err = h.DB.Users.FindOneAndUpdate(ctx,
			bson.M{"email": email},
			bson.M{"$set": bson.M{"googleId": input.GoogleID}},
		).Decode(&user)
		user.GoogleID = input.GoogleID
	}
	if err == mongo.ErrNoDocuments {
		user = models.User{
			Name:      input.Name,
			Email:     email,
			Image:     input.Image,
			GoogleID:  input.GoogleID,
			CreatedAt: time.Now(),
		}
		result, insertErr := h.DB.Users.InsertOne(ctx, user)
		if insertErr != nil {
			utils.RespondError(w, apperrors.Internal(insertErr))
			return
		}
		user.ID = result.InsertedID.(primitive.ObjectID)
		err = nil
	}
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	h.issueToken(w, user)
}

// Logout revokes the presented token for its remaining lifetime.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		utils.RespondError(w, apperrors.Unauthorized("missing token"))
		return
	}
	raw := header[7:]

	claims, err := h.Auth.ParseToken(raw)
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("invalid token"))
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := h.Tokens.Revoke(r.Context(), raw, ttl); err != nil {
		log.Printf("Logout: token revocation failed: %v", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Logged out"})
}

func (h *Handler) issueToken(w http.ResponseWriter, user models.User) {
	token, err := h.Auth.NewToken(user.ID.Hex(), user.Email, user.Name, user.IsAdmin)
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "User logged in successfully",
		"token":   token,
		"userId":  user.ID.Hex(),
	})
}
