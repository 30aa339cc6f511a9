package checkout

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"emporia/apperrors"
	"emporia/models"
	"emporia/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func chargeableLine() models.CartLine {
	return models.CartLine{
		ID:          primitive.NewObjectID(),
		ProductID:   primitive.NewObjectID(),
		ProductName: "Chrono Watch",
		Images:      []string{"/static/uploads/w.jpg"},
		Price:       19.99,
		Quantity:    2,
		Size:        "M",
	}
}

func TestValidateLines(t *testing.T) {
	assert.NoError(t, validateLines([]models.CartLine{chargeableLine()}))

	err := validateLines(nil)
	require.Error(t, err)
	assert.Equal(t, "cart is empty", apperrors.PublicMessage(err))

	broken := []func(*models.CartLine){
		func(l *models.CartLine) { l.ProductID = primitive.ObjectID{} },
		func(l *models.CartLine) { l.ProductName = "" },
		func(l *models.CartLine) { l.Images = nil },
		func(l *models.CartLine) { l.Price = 0 },
		func(l *models.CartLine) { l.Quantity = 0 },
	}
	for _, mutate := range broken {
		line := chargeableLine()
		mutate(&line)
		err := validateLines([]models.CartLine{line})
		require.Error(t, err)
		assert.Equal(t, "invalid cart items", apperrors.PublicMessage(err))
	}
}

func TestBuildLineItems(t *testing.T) {
	line := chargeableLine()
	items := buildLineItems([]models.CartLine{line})

	require.Len(t, items, 1)
	assert.Equal(t, "Chrono Watch", items[0].Name)
	assert.Equal(t, "/static/uploads/w.jpg", items[0].Image)
	assert.Equal(t, int64(1999), items[0].UnitAmount)
	assert.Equal(t, int64(2), items[0].Quantity)
}

func TestSnapshotItems(t *testing.T) {
	line := chargeableLine()
	items := snapshotItems([]models.CartLine{line})

	require.Len(t, items, 1)
	assert.Equal(t, line.ProductID, items[0].ProductID)
	assert.Equal(t, line.ProductName, items[0].Name)
	assert.Equal(t, line.Price, items[0].Price)
	assert.Equal(t, line.Quantity, items[0].Quantity)
	assert.Equal(t, line.Size, items[0].Size)
	assert.Equal(t, line.Images[0], items[0].Image)
}

func TestOrderTotal(t *testing.T) {
	items := []models.OrderItem{
		{Price: 19.99, Quantity: 2},
		{Price: 0.1, Quantity: 3},
	}
	// 39.98 + 0.30, rounded to cent precision despite float drift.
	assert.Equal(t, 40.28, orderTotal(items))

	assert.Equal(t, 0.0, orderTotal(nil))
}

func TestNewPendingOrder(t *testing.T) {
	userID := primitive.NewObjectID()
	lines := []models.CartLine{chargeableLine(), chargeableLine()}

	order := newPendingOrder(userID, lines)

	assert.Equal(t, userID, order.UserID)
	assert.Equal(t, models.OrderPending, order.Status)
	require.Len(t, order.Items, 2)
	// 2 lines x (19.99 x 2)
	assert.Equal(t, 79.96, order.TotalAmount)
	assert.WithinDuration(t, time.Now(), order.CreatedAt, time.Second)
	assert.True(t, order.ID.IsZero(), "id is assigned by the insert")
}

func TestClearCartFilterScopedToBuyer(t *testing.T) {
	userID := primitive.NewObjectID()

	filter := clearCartFilter(userID)

	// only the buyer's lines are cleared in the order transaction
	assert.Equal(t, bson.M{"userId": userID}, filter)
}

func TestMapGatewayError(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, apperrors.HTTPStatus(mapGatewayError(payment.ErrTimeout)))

	rejected := &payment.GatewayError{Type: "invalid_request_error", Message: "Invalid currency: xyz"}
	err := mapGatewayError(rejected)
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	assert.Equal(t, "Invalid currency: xyz", apperrors.PublicMessage(err))

	outage := &payment.GatewayError{Type: "api_error", Message: "internal"}
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(mapGatewayError(outage)))

	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(mapGatewayError(errors.New("dial tcp: refused"))))
}
