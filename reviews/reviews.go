package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"emporia/apperrors"
	"emporia/db"
	"emporia/middleware"
	"emporia/models"
	"emporia/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const handlerTimeout = 5 * time.Second

// Handler serves the reviews embedded in product documents.
type Handler struct {
	DB *db.Database
}

func NewHandler(database *db.Database) *Handler {
	return &Handler{DB: database}
}

// List returns a product's embedded reviews with the derived rating summary.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(ps.ByName("productid"))
	if err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid product ID"))
		return
	}

	var product models.Product
	if err := h.DB.Products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, apperrors.NotFound("product"))
			return
		}
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"reviews": product.Reviews,
		"rating":  models.Summarize(product.Reviews),
	})
}

// addFilter matches only when the product exists AND the user has no review
// on it yet, so the uniqueness check and the append are one atomic operation.
func addFilter(productID, userID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":            productID,
		"reviews.userId": bson.M{"$ne": userID},
	}
}

func pushUpdate(review models.Review) bson.M {
	return bson.M{"$push": bson.M{"reviews": review}}
}

// classifyUnmatched explains a zero MatchedCount: the product is missing, or
// it exists and the filter excluded it because the user already reviewed it.
func classifyUnmatched(productCount int64) error {
	if productCount == 0 {
		return apperrors.NotFound("product")
	}
	return apperrors.Conflict("you have already reviewed this product")
}

// Add appends the caller's review. One review per (product, user): the
// duplicate check and the append are a single filtered update, so two
// concurrent submissions cannot both land.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.UserID(r))
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("please log in to post a review"))
		return
	}

	productID, err := primitive.ObjectIDFromHex(ps.ByName("productid"))
	if err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid product ID"))
		return
	}

	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid JSON payload"))
		return
	}
	if input.Rating < 1 || input.Rating > 5 || input.Comment == "" {
		utils.RespondError(w, apperrors.InvalidInput("rating (1-5) and comment are required"))
		return
	}

	var user models.User
	if err := h.DB.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.RespondError(w, apperrors.Unauthorized("please log in to post a review"))
		return
	}

	review := models.Review{
		UserID:    userID,
		UserName:  user.Name,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
	}

	result, err := h.DB.Products.UpdateOne(ctx, addFilter(productID, userID), pushUpdate(review))
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	if result.MatchedCount == 0 {
		// Distinguish a missing product from a duplicate review.
		count, err := h.DB.Products.CountDocuments(ctx, bson.M{"_id": productID})
		if err != nil {
			utils.RespondError(w, apperrors.Internal(err))
			return
		}
		utils.RespondError(w, classifyUnmatched(count))
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Review added successfully"})
}
