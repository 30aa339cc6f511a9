package admin

import (
	"context"
	"net/http"

	"emporia/apperrors"
	"emporia/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MonthlySale is one month's revenue, keyed by calendar month (1-12).
type MonthlySale struct {
	Month int     `json:"month" bson:"_id"`
	Total float64 `json:"total" bson:"total"`
}

// BestSeller is a product name with its total units sold across all orders.
type BestSeller struct {
	Name      string `json:"name" bson:"_id"`
	TotalSold int    `json:"totalSold" bson:"totalSold"`
}

// Stats is the dashboard aggregate payload.
type Stats struct {
	TotalRevenue  float64       `json:"totalRevenue"`
	TotalOrders   int64         `json:"totalOrders"`
	TotalProducts int64         `json:"totalProducts"`
	TotalUsers    int64         `json:"totalUsers"`
	MonthlySales  []MonthlySale `json:"monthlySales"`
	BestSellers   []BestSeller  `json:"bestSellers"`
}

func revenuePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalAmount"}}}},
	}
}

func monthlySalesPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$month": "$createdAt"},
			"total": bson.M{"$sum": "$totalAmount"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
}

func bestSellersPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$items.name",
			"totalSold": bson.M{"$sum": "$items.quantity"},
		}}},
		{{Key: "$sort", Value: bson.M{"totalSold": -1}}},
		{{Key: "$limit", Value: 5}},
	}
}

func (h *Handler) totalRevenue(ctx context.Context) (float64, error) {
	cursor, err := h.DB.Orders.Aggregate(ctx, revenuePipeline())
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// GetStats returns the dashboard aggregates: revenue, entity counts, revenue
// grouped by calendar month and the top five products by units sold.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	stats := Stats{
		MonthlySales: []MonthlySale{},
		BestSellers:  []BestSeller{},
	}

	revenue, err := h.totalRevenue(ctx)
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	stats.TotalRevenue = revenue

	if stats.TotalOrders, err = h.DB.Orders.CountDocuments(ctx, bson.M{}); err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	if stats.TotalProducts, err = h.DB.Products.CountDocuments(ctx, bson.M{}); err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	if stats.TotalUsers, err = h.DB.Users.CountDocuments(ctx, bson.M{}); err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	cursor, err := h.DB.Orders.Aggregate(ctx, monthlySalesPipeline())
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	if err := cursor.All(ctx, &stats.MonthlySales); err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	cursor, err = h.DB.Orders.Aggregate(ctx, bestSellersPipeline())
	if err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}
	if err := cursor.All(ctx, &stats.BestSellers); err != nil {
		utils.RespondError(w, apperrors.Internal(err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, stats)
}
