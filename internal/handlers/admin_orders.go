package handlers

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"koselimart/internal/models"
)

type updateOrderStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	AdminNotes string `json:"adminNotes"`
}

type updateOrderTrackingRequest struct {
	TrackingNumber    string     `json:"trackingNumber" binding:"required"`
	Carrier           string     `json:"carrier" binding:"required"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// AdminGetOrders lists all orders with filters for back-office work:
// status, paymentStatus, a createdAt date range, and a text search over
// order number and shipping name. GET /api/orders/admin/all.
func AdminGetOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/admin/all"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 20)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := bson.M{}

		if statusParam := c.Query("status"); statusParam != "" {
			status, err := models.ParseOrderStatus(statusParam)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid status filter")
				return
			}
			filter["status"] = status
		}

		if paymentStatus := c.Query("paymentStatus"); paymentStatus != "" {
			filter["paymentStatus"] = paymentStatus
		}

		createdAt := bson.M{}
		if from := c.Query("dateFrom"); from != "" {
			t, err := time.Parse(time.RFC3339, from)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid dateFrom, expected RFC3339")
				return
			}
			createdAt["$gte"] = t
		}
		if to := c.Query("dateTo"); to != "" {
			t, err := time.Parse(time.RFC3339, to)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid dateTo, expected RFC3339")
				return
			}
			createdAt["$lte"] = t
		}
		if len(createdAt) > 0 {
			filter["createdAt"] = createdAt
		}

		if search := c.Query("search"); search != "" {
			pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
			filter["$or"] = bson.A{
				bson.M{"orderNumber": pattern},
				bson.M{"shippingAddress.firstName": pattern},
				bson.M{"shippingAddress.lastName": pattern},
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		orders := db.Collection("orders")

		total, err := orders.CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		findOpts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := orders.Find(ctx, filter, findOpts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		results := []models.Order{}
		if err := cursor.All(ctx, &results); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": results,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": totalPages(total, limit),
			},
		})
	}
}

// AdminUpdateOrderStatus moves an order through the lifecycle, rejecting
// transitions the state machine does not allow. PATCH /api/orders/:orderId/status.
func AdminUpdateOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/orders/:orderId/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		target, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		orders := db.Collection("orders")

		var order models.Order
		err = orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		previous := order.Status
		if err := order.TransitionTo(target); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         err.Error(),
				"currentStatus": previous,
			})
			return
		}

		set := bson.M{
			"status":    order.Status,
			"updatedAt": order.UpdatedAt,
		}
		if req.AdminNotes != "" {
			set["adminNotes"] = req.AdminNotes
			order.AdminNotes = req.AdminNotes
		}
		if order.ShippedAt != nil {
			set["shippedAt"] = order.ShippedAt
		}
		if order.DeliveredAt != nil {
			set["deliveredAt"] = order.DeliveredAt
		}

		// guard on the previous status so two admins racing cannot apply
		// the same transition twice
		res, err := orders.UpdateOne(ctx, bson.M{"_id": orderID, "status": previous}, bson.M{"$set": set})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.ModifiedCount == 0 {
			respondWithError(c, http.StatusConflict, route, "order status changed concurrently, retry")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order status updated", "order": order})
	}
}

// AdminUpdateOrderTracking attaches shipment tracking details.
// PATCH /api/orders/:orderId/tracking.
func AdminUpdateOrderTracking(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/orders/:orderId/tracking"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		var req updateOrderTrackingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		set := bson.M{
			"trackingNumber": req.TrackingNumber,
			"carrier":        req.Carrier,
			"updatedAt":      time.Now(),
		}
		if req.EstimatedDelivery != nil {
			set["estimatedDelivery"] = req.EstimatedDelivery
		}

		orders := db.Collection("orders")
		res := orders.FindOneAndUpdate(ctx,
			bson.M{"_id": orderID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)

		var order models.Order
		if err := res.Decode(&order); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "tracking updated", "order": order})
	}
}
