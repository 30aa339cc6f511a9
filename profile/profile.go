package profile

import (
	"context"
	"net/http"
	"time"

	"emporia/apperrors"
	"emporia/db"
	"emporia/media"
	"emporia/middleware"
	"emporia/models"
	"emporia/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const handlerTimeout = 10 * time.Second

// Handler serves the caller's own profile.
type Handler struct {
	DB    *db.Database
	Media *media.Store
}

func NewHandler(database *db.Database, store *media.Store) *Handler {
	return &Handler{DB: database, Media: store}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.UserID(r))
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("unauthorized"))
		return
	}

	var user models.User
	if err := h.DB.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, apperrors.NotFound("user"))
			return
		}
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"user": models.ProfileResponse{Name: user.Name, Email: user.Email, Image: user.Image},
	})
}

// Update changes the caller's display name and/or avatar. Multipart: "name"
// field, "image" file.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.UserID(r))
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("unauthorized"))
		return
	}

	if err := r.ParseMultipartForm(16 << 20); err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid multipart form"))
		return
	}

	updates := bson.M{}
	if name := r.FormValue("name"); name != "" {
		updates["name"] = name
	}

	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		url, err := h.Media.SaveImage(files[0])
		if err != nil {
			utils.RespondError(w, apperrors.InvalidInput(err.Error()))
			return
		}
		updates["image"] = url
	}

	if len(updates) == 0 {
		utils.RespondError(w, apperrors.InvalidInput("nothing to update"))
		return
	}

	var user models.User
	err = h.DB.Users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": updates},
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, apperrors.NotFound("user"))
			return
		}
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Profile updated successfully"})
}
