package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"koselimart/internal/models"
)

type createProductRequest struct {
	Name              string                `json:"name" binding:"required"`
	Description       string                `json:"description"`
	Category          string                `json:"category" binding:"required"`
	Price             float64               `json:"price" binding:"required,gt=0"`
	ComparePrice      float64               `json:"comparePrice" binding:"gte=0"`
	SKU               string                `json:"sku"`
	StockQuantity     int                   `json:"stockQuantity" binding:"gte=0"`
	LowStockThreshold int                   `json:"lowStockThreshold" binding:"gte=0"`
	TrackInventory    *bool                 `json:"trackInventory"`
	Images            []models.ProductImage `json:"images"`
	Status            string                `json:"status"`
	IsFeatured        bool                  `json:"isFeatured"`
}

type updateProductRequest struct {
	Name              *string                `json:"name"`
	Description       *string                `json:"description"`
	Category          *string                `json:"category"`
	Price             *float64               `json:"price" binding:"omitempty,gt=0"`
	ComparePrice      *float64               `json:"comparePrice" binding:"omitempty,gte=0"`
	SKU               *string                `json:"sku"`
	StockQuantity     *int                   `json:"stockQuantity" binding:"omitempty,gte=0"`
	LowStockThreshold *int                   `json:"lowStockThreshold" binding:"omitempty,gte=0"`
	TrackInventory    *bool                  `json:"trackInventory"`
	Images            *[]models.ProductImage `json:"images"`
	Status            *string                `json:"status"`
	IsActive          *bool                  `json:"isActive"`
	IsFeatured        *bool                  `json:"isFeatured"`
}

func validProductStatus(status string) bool {
	switch status {
	case models.ProductStatusActive, models.ProductStatusDraft, models.ProductStatusArchived:
		return true
	}
	return false
}

// AdminCreateProduct creates a product with a slug derived from the name.
// POST /api/products (admin).
func AdminCreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"
		defer handlePanic(c, route)

		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		categoryID, err := primitive.ObjectIDFromHex(req.Category)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid category")
			return
		}

		status := req.Status
		if status == "" {
			status = models.ProductStatusActive
		}
		if !validProductStatus(status) {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		categories := db.Collection("categories")
		if err := categories.FindOne(ctx, bson.M{"_id": categoryID}).Err(); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusBadRequest, route, "category not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		slug := slugify(req.Name)
		products := db.Collection("products")

		// the unique index is the real guard; this check just gives a
		// friendlier error message
		if err := products.FindOne(ctx, bson.M{"slug": slug}).Err(); err == nil {
			respondWithError(c, http.StatusConflict, route, "a product with this name already exists")
			return
		} else if err != mongo.ErrNoDocuments {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		trackInventory := true
		if req.TrackInventory != nil {
			trackInventory = *req.TrackInventory
		}

		now := time.Now()
		product := models.Product{
			Name:         req.Name,
			Slug:         slug,
			Description:  req.Description,
			Category:     categoryID,
			Price:        req.Price,
			ComparePrice: req.ComparePrice,
			SKU:          req.SKU,
			Stock: models.Stock{
				Quantity:          req.StockQuantity,
				LowStockThreshold: req.LowStockThreshold,
				TrackInventory:    trackInventory,
			},
			Images:     req.Images,
			Status:     status,
			IsActive:   true,
			IsFeatured: req.IsFeatured,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		res, err := products.InsertOne(ctx, product)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "duplicate slug or sku")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		product.ID = res.InsertedID.(primitive.ObjectID)

		log.Printf("[%s] product %s created", route, product.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"product": product})
	}
}

// AdminUpdateProduct applies a partial update. PUT /api/products/:productId (admin).
func AdminUpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:productId"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		set := bson.M{"updatedAt": time.Now()}

		if req.Name != nil {
			set["name"] = *req.Name
			set["slug"] = slugify(*req.Name)
		}
		if req.Description != nil {
			set["description"] = *req.Description
		}
		if req.Category != nil {
			categoryID, err := primitive.ObjectIDFromHex(*req.Category)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid category")
				return
			}
			set["category"] = categoryID
		}
		if req.Price != nil {
			set["price"] = *req.Price
		}
		if req.ComparePrice != nil {
			set["comparePrice"] = *req.ComparePrice
		}
		if req.SKU != nil {
			set["sku"] = *req.SKU
		}
		if req.StockQuantity != nil {
			set["stock.quantity"] = *req.StockQuantity
		}
		if req.LowStockThreshold != nil {
			set["stock.lowStockThreshold"] = *req.LowStockThreshold
		}
		if req.TrackInventory != nil {
			set["stock.trackInventory"] = *req.TrackInventory
		}
		if req.Images != nil {
			set["images"] = *req.Images
		}
		if req.Status != nil {
			if !validProductStatus(*req.Status) {
				respondWithError(c, http.StatusBadRequest, route, "invalid status")
				return
			}
			set["status"] = *req.Status
		}
		if req.IsActive != nil {
			set["isActive"] = *req.IsActive
		}
		if req.IsFeatured != nil {
			set["isFeatured"] = *req.IsFeatured
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res := db.Collection("products").FindOneAndUpdate(ctx,
			bson.M{"_id": productID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)

		var product models.Product
		if err := res.Decode(&product); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "duplicate slug or sku")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

// AdminArchiveProduct soft-deletes a product by archiving it, keeping the
// document so historical orders still resolve. DELETE /api/products/:productId (admin).
func AdminArchiveProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:productId"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").UpdateOne(ctx,
			bson.M{"_id": productID},
			bson.M{"$set": bson.M{
				"status":    models.ProductStatusArchived,
				"isActive":  false,
				"updatedAt": time.Now(),
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		log.Printf("[%s] product %s archived", route, productID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "product archived"})
	}
}

// AdminGetProducts lists products for the back office regardless of
// visibility. GET /api/products/admin/all.
func AdminGetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/admin/all"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 20)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := bson.M{}
		if status := c.Query("status"); status != "" {
			if !validProductStatus(status) {
				respondWithError(c, http.StatusBadRequest, route, "invalid status filter")
				return
			}
			filter["status"] = status
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		products := db.Collection("products")

		total, err := products.CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cursor, err := products.Find(ctx, filter, findOptions)
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

		c.JSON(http.StatusOK, gin.H{
			"products": results,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": totalPages(total, limit),
			},
		})
	}
}
