package admin

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"emporia/apperrors"
	"emporia/db"
	"emporia/live"
	"emporia/models"
	"emporia/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const handlerTimeout = 10 * time.Second

// Handler serves the admin dashboard: order management, aggregate stats and
// the live order feed. Every route is gated behind RequireAdmin.
type Handler struct {
	DB     *db.Database
	Events *live.Hub
}

func NewHandler(database *db.Database, events *live.Hub) *Handler {
	return &Handler{DB: database, Events: events}
}

func ordersPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$addFields", Value: bson.M{
			"userName":  "$user.name",
			"userEmail": "$user.email",
		}}},
		{{Key: "$project", Value: bson.M{"user": 0}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
	}
}

// ListOrders returns every order with the buyer's name and email, newest
// first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	cursor, err := h.DB.Orders.Aggregate(ctx, ordersPipeline())
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	defer cursor.Close(ctx)

	orders := []models.AdminOrder{}
	if err := cursor.All(ctx, &orders); err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus moves an order through the pending/shipped/delivered
// progression. The item snapshot itself is never writable.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var input struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid JSON payload"))
		return
	}
	if input.OrderID == "" || input.Status == "" {
		utils.RespondError(w, apperrors.InvalidInput("orderId and status are required"))
		return
	}
	if !models.ValidOrderStatus(input.Status) {
		utils.RespondError(w, apperrors.InvalidInput("invalid order status"))
		return
	}

	orderID, err := primitive.ObjectIDFromHex(input.OrderID)
	if err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid order ID"))
		return
	}

	var order models.Order
	err = h.DB.Orders.FindOneAndUpdate(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"status": input.Status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, apperrors.NotFound("order"))
			return
		}
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	if h.Events != nil {
		h.Events.Publish(live.OrderEvent{Type: "order_updated", Order: order, Timestamp: time.Now()})
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}

// DeleteOrder removes an order record.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var input struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.OrderID == "" {
		utils.RespondError(w, apperrors.InvalidInput("order ID is required"))
		return
	}

	orderID, err := primitive.ObjectIDFromHex(input.OrderID)
	if err != nil {
		utils.RespondError(w, apperrors.InvalidInput("invalid order ID"))
		return
	}

	result, err := h.DB.Orders.DeleteOne(ctx, bson.M{"_id": orderID})
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	if result.DeletedCount == 0 {
		utils.RespondError(w, apperrors.NotFound("order"))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Order deleted successfully"})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LiveOrders upgrades the connection and streams order events to the admin
// dashboard.
func (h *Handler) LiveOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("LiveOrders upgrade failed: %v", err)
		return
	}
	h.Events.Register(conn)

	// Drain client frames so pings and closes are processed; the hub owns
	// writes and cleanup.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
