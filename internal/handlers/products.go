package handlers

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"koselimart/internal/models"
)

// publicProductFilter matches only products a storefront visitor may see.
func publicProductFilter() bson.M {
	return bson.M{
		"status":   models.ProductStatusActive,
		"isActive": true,
	}
}

// GetProducts lists active products with optional category and search
// filters. GET /api/products.
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		log.Printf("[%s] hit page=%s limit=%s category=%s search=%s",
			route, c.Query("page"), c.Query("limit"), c.Query("category"), c.Query("search"))

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 20)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := publicProductFilter()

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			categoryID, err := primitive.ObjectIDFromHex(category)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid category")
				return
			}
			filter["category"] = categoryID
		}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["name"] = bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
		}

		sort := bson.D{{Key: "createdAt", Value: -1}}
		switch c.Query("sort") {
		case "price_asc":
			sort = bson.D{{Key: "price", Value: 1}}
		case "price_desc":
			sort = bson.D{{Key: "price", Value: -1}}
		case "popular":
			sort = bson.D{{Key: "salesCount", Value: -1}}
		}

		findOptions := options.Find().
			SetSort(sort).
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

		log.Printf("[%s] returning %d products", route, len(results))
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

// GetProductBySlug returns one active product. GET /api/products/:slug.
func GetProductBySlug(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:slug"
		defer handlePanic(c, route)

		filter := publicProductFilter()
		filter["slug"] = c.Param("slug")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err := db.Collection("products").FindOne(ctx, filter).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

// GetFeaturedProducts returns the featured shelf for the storefront home
// page. GET /api/products/featured.
func GetFeaturedProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/featured"
		defer handlePanic(c, route)

		filter := publicProductFilter()
		filter["isFeatured"] = true

		findOptions := options.Find().
			SetSort(bson.D{{Key: "salesCount", Value: -1}}).
			SetLimit(12)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
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
