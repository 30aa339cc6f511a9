package orders

import (
	"context"
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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const handlerTimeout = 10 * time.Second

// Handler serves the authenticated user's order history.
type Handler struct {
	DB *db.Database

	// InvoiceSecret signs the QR payload on PDF invoices.
	InvoiceSecret []byte
}

func NewHandler(database *db.Database, invoiceSecret string) *Handler {
	return &Handler{DB: database, InvoiceSecret: []byte(invoiceSecret)}
}

// List returns the caller's orders, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.UserID(r))
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("unauthorized"))
		return
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := h.DB.Orders.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	defer cursor.Close(ctx)

	userOrders := []models.Order{}
	if err := cursor.All(ctx, &userOrders); err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, userOrders)
}

// findOwned loads an order the caller may see: the owner, or any admin.
func (h *Handler) findOwned(ctx context.Context, r *http.Request, orderIDHex string) (*models.Order, error) {
	orderID, err := primitive.ObjectIDFromHex(orderIDHex)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid order ID")
	}

	var order models.Order
	if err := h.DB.Orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("order")
		}
		return nil, apperrors.Internal(err)
	}

	if order.UserID.Hex() != middleware.UserID(r) && !middleware.IsAdmin(r) {
		// Hide the order's existence from non-owners.
		return nil, apperrors.NotFound("order")
	}
	return &order, nil
}
