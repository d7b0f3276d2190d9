package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"koselimart/internal/models"
)

// GetUserOrders lists the caller's orders, newest first. Supports a status
// filter and pagination. GET /api/orders.
func GetUserOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 10)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := bson.M{"userId": userID}
		if statusParam := c.Query("status"); statusParam != "" {
			status, err := models.ParseOrderStatus(statusParam)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid status filter")
				return
			}
			filter["status"] = status
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

// GetOrder returns a single order owned by the caller. GET /api/orders/:orderId.
func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:orderId"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").
			FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).
			Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

// CancelOrder cancels an order that has not started processing yet.
// PATCH /api/orders/:orderId/cancel.
func CancelOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/orders/:orderId/cancel"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		orders := db.Collection("orders")

		var order models.Order
		err = orders.FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if !order.CancellableByUser() {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         "order can no longer be cancelled",
				"currentStatus": order.Status,
			})
			return
		}

		now := time.Now()
		update := bson.M{"$set": bson.M{
			"status":    models.OrderCancelled,
			"updatedAt": now,
		}}
		// concurrent status changes lose to whichever write lands first
		res, err := orders.UpdateOne(ctx, bson.M{
			"_id":    orderID,
			"userId": userID,
			"status": bson.M{"$in": []models.OrderStatus{models.OrderPending, models.OrderConfirmed}},
		}, update)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.ModifiedCount == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         "order can no longer be cancelled",
				"currentStatus": order.Status,
			})
			return
		}

		order.Status = models.OrderCancelled
		order.UpdatedAt = now
		c.JSON(http.StatusOK, gin.H{"message": "order cancelled", "order": order})
	}
}
