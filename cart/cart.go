package cart

import (
	"context"
	"encoding/json"
	"log"
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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const handlerTimeout = 10 * time.Second

// Handler owns cart line-item bookkeeping for the authenticated user.
type Handler struct {
	DB    *db.Database
	Media *media.Store
}

func NewHandler(database *db.Database, store *media.Store) *Handler {
	return &Handler{DB: database, Media: store}
}

// addFilter selects the unique (user, product, size) line.
func addFilter(userID, productID primitive.ObjectID, size string) bson.M {
	return bson.M{
		"userId":    userID,
		"productId": productID,
		"size":      size,
	}
}

// addUpdate increments quantity on an existing line; price and addedAt are
// only written on insert, so the captured price never re-syncs with the
// catalog.
func addUpdate(quantity int, price float64) bson.M {
	return bson.M{
		"$inc": bson.M{"quantity": quantity},
		"$setOnInsert": bson.M{
			"price":   price,
			"addedAt": time.Now(),
		},
	}
}

// lineUpdater is the slice of mongo.Collection the upsert needs.
type lineUpdater interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{},
		opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// upsertLine applies the cart-add upsert. Two concurrent first-adds of the
// same line can both take the insert path; the unique index fails the loser
// with a duplicate key, and one retry lands it on the increment path.
func upsertLine(ctx context.Context, coll lineUpdater, filter, update bson.M) error {
	opts := options.Update().SetUpsert(true)
	_, err := coll.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		_, err = coll.UpdateOne(ctx, filter, update, opts)
	}
	return err
}

// Add puts a product in the cart, or bumps the quantity of the existing
// (product, size) line. The upsert is atomic, so two concurrent adds of the
// same line collapse into one document with the summed quantity.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.UserID(r))
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("unauthorized"))
		return
	}

	var input struct {
		ProductID string `json:"productId"`
		Size      string `json:"size"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid JSON payload"))
		return
	}
	if input.ProductID == "" || input.Size == "" || input.Quantity < 1 {
		utils.RespondError(w, apperrors.InvalidInput("productId, size and a positive quantity are required"))
		return
	}

	productID, err := primitive.ObjectIDFromHex(input.ProductID)
	if err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid product ID"))
		return
	}

	var product models.Product
	if err := h.DB.Products.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, apperrors.NotFound("product"))
			return
		}
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	if err := upsertLine(ctx, h.DB.Carts,
		addFilter(userID, productID, input.Size),
		addUpdate(input.Quantity, product.Price),
	); err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Added to cart successfully"})
}

// listPipeline joins cart lines with current product display fields. The
// line keeps its captured price; only name and images come from the live
// product.
func listPipeline(userID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "products",
			"localField":   "productId",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$unwind", Value: "$product"}},
		{{Key: "$project", Value: bson.M{
			"productId":   1,
			"size":        1,
			"quantity":    1,
			"price":       1,
			"addedAt":     1,
			"productName": "$product.name",
			"images":      "$product.images",
		}}},
		{{Key: "$sort", Value: bson.M{"addedAt": 1}}},
	}
}

// Lines fetches the user's cart joined with product display fields. Checkout
// uses the same read so the authoritative server-side cart, not a client
// snapshot, is what gets charged.
func Lines(ctx context.Context, database *db.Database, userID primitive.ObjectID) ([]models.CartLine, error) {
	cursor, err := database.Carts.Aggregate(ctx, listPipeline(userID))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	lines := []models.CartLine{}
	if err := cursor.All(ctx, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// List returns the user's cart joined with product display fields.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.UserID(r))
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("unauthorized"))
		return
	}

	lines, err := Lines(ctx, h.DB, userID)
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, lines)
}

// UpdateQuantity sets a line's quantity. The filter includes the owner, so
// a line id belonging to another user reads as not found.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.UserID(r))
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("unauthorized"))
		return
	}

	cartID, err := primitive.ObjectIDFromHex(ps.ByName("cartid"))
	if err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid cart ID"))
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid JSON payload"))
		return
	}
	if input.Quantity < 1 {
		utils.RespondError(w, apperrors.InvalidInput("quantity must be at least 1"))
		return
	}

	var item models.CartItem
	err = h.DB.Carts.FindOneAndUpdate(ctx,
		bson.M{"_id": cartID, "userId": userID},
		bson.M{"$set": bson.M{"quantity": input.Quantity}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, apperrors.NotFound("cart item"))
			return
		}
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Cart updated", "cartItem": item})
}

// Remove deletes a line the caller owns. Associated stored product images
// are cleaned up best-effort; a failed image delete never fails the removal.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.UserID(r))
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("unauthorized"))
		return
	}

	cartID, err := primitive.ObjectIDFromHex(ps.ByName("cartid"))
	if err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid cart ID"))
		return
	}

	var item models.CartItem
	err = h.DB.Carts.FindOneAndDelete(ctx, bson.M{"_id": cartID, "userId": userID}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, apperrors.NotFound("cart item"))
			return
		}
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	var product models.Product
	if err := h.DB.Products.FindOne(ctx, bson.M{"_id": item.ProductID}).Decode(&product); err == nil {
		for _, url := range product.Images {
			if err := h.Media.Remove(url); err != nil {
				log.Printf("Remove: image cleanup failed for %s: %v", url, err)
			}
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Item removed successfully"})
}
