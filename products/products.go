package products

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"emporia/apperrors"
	"emporia/db"
	"emporia/media"
	"emporia/models"
	"emporia/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const handlerTimeout = 10 * time.Second

// Handler serves the product catalog.
type Handler struct {
	DB    *db.Database
	Media *media.Store
}

func NewHandler(database *db.Database, store *media.Store) *Handler {
	return &Handler{DB: database, Media: store}
}

// Create adds a catalog entry. Admin-only; images arrive as multipart files
// and are persisted through the media store.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid multipart form"))
		return
	}

	name := r.FormValue("name")
	description := r.FormValue("description")
	category := r.FormValue("category")
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price <= 0 {
		utils.RespondError(w, apperrors.InvalidInput("price must be a positive number"))
		return
	}
	if name == "" || description == "" {
		utils.RespondError(w, apperrors.InvalidInput("name and description are required"))
		return
	}
	if !models.ValidCategory(category) {
		utils.RespondError(w, apperrors.InvalidInput("invalid category"))
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.RespondError(w, apperrors.InvalidInput("at least one image is required"))
		return
	}

	imageURLs := make([]string, 0, len(files))
	for _, header := range files {
		url, err := h.Media.SaveImage(header)
		if err != nil {
			utils.RespondError(w, apperrors.InvalidInput(err.Error()))
			return
		}
		imageURLs = append(imageURLs, url)
	}

	product := models.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		Sizes:       r.MultipartForm.Value["sizes"],
		Images:      imageURLs,
		Reviews:     []models.Review{},
	}
	if product.Sizes == nil {
		product.Sizes = []string{}
	}

	result, err := h.DB.Products.InsertOne(ctx, product)
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	product.ID = result.InsertedID.(primitive.ObjectID)

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Product created successfully",
		"product": product,
	})
}

// List returns display fields for every product, optionally filtered by a
// case-insensitive name search (?q=).
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	filter := bson.M{}
	if q := r.URL.Query().Get("q"); q != "" {
		filter["name"] = bson.M{"$regex": q, "$options": "i"}
	}

	opts := options.Find().SetProjection(bson.M{
		"name": 1, "price": 1, "images": 1, "reviews": 1, "category": 1,
	})
	cursor, err := h.DB.Products.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"products": products})
}

// Get returns one product with its embedded reviews and the derived rating
// display. The average is recomputed on every read, never stored.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
		"product": product,
		"rating":  models.Summarize(product.Reviews),
	})
}

// ByCategory lists products in one of the fixed categories.
func (h *Handler) ByCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	category := ps.ByName("category")
	if !models.ValidCategory(category) {
		utils.RespondError(w, apperrors.InvalidInput("invalid category"))
		return
	}

	cursor, err := h.DB.Products.Find(ctx, bson.M{"category": category})
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, products)
}

// Delete removes a product and its stored images. Admin-only. Image cleanup
// is best-effort; a failed file delete is logged, not surfaced.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	id, err := primitive.ObjectIDFromHex(ps.ByName("productid"))
	if err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid product ID"))
		return
	}

	var product models.Product
	if err := h.DB.Products.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, apperrors.NotFound("product"))
			return
		}
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	for _, url := range product.Images {
		if err := h.Media.Remove(url); err != nil {
			log.Printf("Delete: image cleanup failed for %s: %v", url, err)
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Product deleted"})
}
