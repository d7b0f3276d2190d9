package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"koselimart/internal/models"
)

type addressRequest struct {
	Title     string `json:"title" binding:"required"`
	Detail    string `json:"detail" binding:"required"`
	Note      string `json:"note"`
	IsDefault bool   `json:"isDefault"`
}

type wishlistRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func loadUser(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserAddresses lists the caller's saved addresses. GET /api/users/addresses.
func GetUserAddresses(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users/addresses"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := loadUser(ctx, db, userID)
		if err != nil {
			log.Println("[ADDRESS] [ERROR] get addresses failed:", err)
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"addresses": user.Addresses})
	}
}

// CreateUserAddress appends an address. Marking it default clears the flag
// on the others. POST /api/users/addresses.
func CreateUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/addresses"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := loadUser(ctx, db, userID)
		if err != nil {
			log.Println("[ADDRESS] [ERROR] user not found:", err)
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		if req.IsDefault {
			for i := range user.Addresses {
				user.Addresses[i].IsDefault = false
			}
		}

		address := models.Address{
			ID:        uuid.NewString(),
			Title:     req.Title,
			Detail:    req.Detail,
			Note:      req.Note,
			IsDefault: req.IsDefault,
		}
		user.Addresses = append(user.Addresses, address)

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": bson.M{
			"addresses": user.Addresses,
			"updatedAt": time.Now(),
		}}); err != nil {
			log.Println("[ADDRESS] [ERROR] save address failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"address": address})
	}
}

// UpdateUserAddress edits one saved address. PUT /api/users/addresses/:addressId.
func UpdateUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/users/addresses/:addressId"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}
		addressID := c.Param("addressId")

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := loadUser(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		found := false
		for i := range user.Addresses {
			if user.Addresses[i].ID == addressID {
				found = true
				continue
			}
			if req.IsDefault {
				user.Addresses[i].IsDefault = false
			}
		}
		if !found {
			respondWithError(c, http.StatusNotFound, route, "address not found")
			return
		}

		for i := range user.Addresses {
			if user.Addresses[i].ID != addressID {
				continue
			}
			user.Addresses[i].Title = req.Title
			user.Addresses[i].Detail = req.Detail
			user.Addresses[i].Note = req.Note
			user.Addresses[i].IsDefault = req.IsDefault
		}

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": bson.M{
			"addresses": user.Addresses,
			"updatedAt": time.Now(),
		}}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"addresses": user.Addresses})
	}
}

// DeleteUserAddress removes one saved address. DELETE /api/users/addresses/:addressId.
func DeleteUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/users/addresses/:addressId"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}
		addressID := c.Param("addressId")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$pull": bson.M{"addresses": bson.M{"id": addressID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.ModifiedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "address not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "address deleted"})
	}
}

// GetWishlist returns the caller's saved products. GET /api/users/wishlist.
func GetWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users/wishlist"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := loadUser(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		if len(user.Wishlist) == 0 {
			c.JSON(http.StatusOK, gin.H{"products": []models.Product{}})
			return
		}

		filter := publicProductFilter()
		filter["_id"] = bson.M{"$in": user.Wishlist}

		cursor, err := db.Collection("products").Find(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		results := []models.Product{}
		if err := cursor.All(ctx, &results); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"products": results})
	}
}

// AddToWishlist saves a product; adding twice is a no-op.
// POST /api/users/wishlist.
func AddToWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/wishlist"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		var req wishlistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Err(); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$addToSet": bson.M{"wishlist": productID},
			"$set":      bson.M{"updatedAt": time.Now()},
		}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "added to wishlist"})
	}
}

// RemoveFromWishlist drops a product from the list.
// DELETE /api/users/wishlist/:productId.
func RemoveFromWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/users/wishlist/:productId"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$pull": bson.M{"wishlist": productID},
			"$set":  bson.M{"updatedAt": time.Now()},
		}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "removed from wishlist"})
	}
}
