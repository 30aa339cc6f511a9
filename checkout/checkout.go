package checkout

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"emporia/apperrors"
	"emporia/cart"
	"emporia/db"
	"emporia/live"
	"emporia/middleware"
	"emporia/models"
	"emporia/payment"
	"emporia/rdx"
	"emporia/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	handlerTimeout = 30 * time.Second
	lockTTL        = 30 * time.Second
)

// Handler runs the checkout flow: authoritative cart fetch, payment-session
// creation, order snapshot and cart clear.
type Handler struct {
	DB      *db.Database
	Gateway *payment.Client
	Locker  *rdx.Locker
	Events  *live.Hub
}

func NewHandler(database *db.Database, gateway *payment.Client, locker *rdx.Locker, events *live.Hub) *Handler {
	return &Handler{DB: database, Gateway: gateway, Locker: locker, Events: events}
}

// validateLines rejects a cart that cannot be charged: empty, or any line
// missing product identity, name, image, price, or with a non-positive
// quantity.
func validateLines(lines []models.CartLine) error {
	if len(lines) == 0 {
		return apperrors.InvalidInput("cart is empty")
	}
	for _, line := range lines {
		if line.ProductID.IsZero() || line.ProductName == "" || len(line.Images) == 0 ||
			line.Price <= 0 || line.Quantity <= 0 {
			return apperrors.InvalidInput("invalid cart items")
		}
	}
	return nil
}

// buildLineItems converts cart lines into gateway line items, one per line,
// with the captured unit price in minor currency units.
func buildLineItems(lines []models.CartLine) []payment.LineItem {
	items := make([]payment.LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, payment.LineItem{
			Name:       line.ProductName,
			Image:      line.Images[0],
			UnitAmount: payment.MinorUnits(line.Price),
			Quantity:   int64(line.Quantity),
		})
	}
	return items
}

// snapshotItems copies the cart into immutable order items, decoupled from
// later catalog edits.
func snapshotItems(lines []models.CartLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.ProductName,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Image:     line.Images[0],
		})
	}
	return items
}

// orderTotal is always recomputed server-side; a client-supplied total is
// never trusted.
func orderTotal(items []models.OrderItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	// Keep the stored total at cent precision.
	return math.Round(total*100) / 100
}

// newPendingOrder snapshots the cart into the single order a checkout
// produces: status pending, total recomputed from the snapshot.
func newPendingOrder(userID primitive.ObjectID, lines []models.CartLine) models.Order {
	items := snapshotItems(lines)
	return models.Order{
		UserID:      userID,
		Items:       items,
		TotalAmount: orderTotal(items),
		Status:      models.OrderPending,
		CreatedAt:   time.Now(),
	}
}

// clearCartFilter selects every cart line of the buyer and nothing else.
func clearCartFilter(userID primitive.ObjectID) bson.M {
	return bson.M{"userId": userID}
}

func mapGatewayError(err error) error {
	if errors.Is(err, payment.ErrTimeout) {
		return apperrors.ExternalService("payment gateway timed out, please retry", http.StatusGatewayTimeout)
	}
	var gwErr *payment.GatewayError
	if errors.As(err, &gwErr) {
		if gwErr.InvalidRequest() {
			return apperrors.ExternalService(gwErr.Message, http.StatusBadRequest)
		}
		return apperrors.ExternalService("payment gateway error", http.StatusBadGateway)
	}
	return apperrors.Internal(err)
}

// Checkout creates a hosted payment session for the caller's cart, then
// persists the order snapshot and clears the cart in one transaction.
//
// The order is created as "pending" as soon as the payment session exists;
// payment confirmation is reconciled out of band. An abandoned session
// therefore leaves a pending order behind.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(middleware.UserID(r))
	if err != nil {
		utils.RespondError(w, apperrors.Unauthorized("unauthorized"))
		return
	}

	// One checkout per user at a time; a concurrent double-submit cannot
	// create two orders from the same cart.
	lockKey := rdx.CheckoutKey(userID.Hex())
	acquired, err := h.Locker.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	if !acquired {
		utils.RespondError(w, apperrors.Conflict("a checkout is already in progress"))
		return
	}
	defer func() {
		if err := h.Locker.Release(context.Background(), lockKey); err != nil {
			log.Printf("Checkout: lock release failed: %v", err)
		}
	}()

	// The cart is re-read server-side; the client's snapshot is ignored.
	lines, err := cart.Lines(ctx, h.DB, userID)
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	if err := validateLines(lines); err != nil {
		utils.RespondError(w, err)
		return
	}

	session, err := h.Gateway.CreateSession(ctx, buildLineItems(lines))
	if err != nil {
		utils.RespondError(w, mapGatewayError(err))
		return
	}

	order := newPendingOrder(userID, lines)

	// Order insert and cart clear commit or abort together.
	mongoSession, err := h.DB.Client.StartSession()
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	defer mongoSession.EndSession(ctx)

	_, err = mongoSession.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := h.DB.Orders.InsertOne(sc, order)
		if err != nil {
			return nil, err
		}
		order.ID = result.InsertedID.(primitive.ObjectID)

		if _, err := h.DB.Carts.DeleteMany(sc, clearCartFilter(userID)); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	if h.Events != nil {
		h.Events.Publish(live.OrderEvent{
			Type:      "order_created",
			Order:     order,
			Timestamp: time.Now(),
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"sessionId": session.ID, "url": session.URL})
}
