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

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sortOrder"`
	IsActive    *bool   `json:"isActive"`
}

// GetCategories lists active categories in sort order. GET /api/categories.
func GetCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/categories"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetSort(bson.D{{Key: "sortOrder", Value: 1}, {Key: "name", Value: 1}})

		cursor, err := db.Collection("categories").Find(ctx, bson.M{"isActive": true}, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		results := []models.Category{}
		if err := cursor.All(ctx, &results); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"categories": results})
	}
}

// AdminCreateCategory creates a category with a slug derived from the name.
// POST /api/categories (admin).
func AdminCreateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/categories"
		defer handlePanic(c, route)

		var req createCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		slug := slugify(req.Name)
		categories := db.Collection("categories")

		if err := categories.FindOne(ctx, bson.M{"slug": slug}).Err(); err == nil {
			respondWithError(c, http.StatusConflict, route, "a category with this name already exists")
			return
		} else if err != mongo.ErrNoDocuments {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		now := time.Now()
		category := models.Category{
			Name:        req.Name,
			Slug:        slug,
			Description: req.Description,
			IsActive:    true,
			SortOrder:   req.SortOrder,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		res, err := categories.InsertOne(ctx, category)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		category.ID = res.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"category": category})
	}
}

// AdminUpdateCategory applies a partial update. PUT /api/categories/:categoryId (admin).
func AdminUpdateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/categories/:categoryId"
		defer handlePanic(c, route)

		categoryID, err := primitive.ObjectIDFromHex(c.Param("categoryId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid categoryId")
			return
		}

		var req updateCategoryRequest
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
		if req.SortOrder != nil {
			set["sortOrder"] = *req.SortOrder
		}
		if req.IsActive != nil {
			set["isActive"] = *req.IsActive
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res := db.Collection("categories").FindOneAndUpdate(ctx,
			bson.M{"_id": categoryID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		)

		var category models.Category
		if err := res.Decode(&category); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "category not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"category": category})
	}
}

// AdminDeleteCategory deactivates a category. Products keep their reference
// and simply stop showing under it. DELETE /api/categories/:categoryId (admin).
func AdminDeleteCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/categories/:categoryId"
		defer handlePanic(c, route)

		categoryID, err := primitive.ObjectIDFromHex(c.Param("categoryId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid categoryId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("categories").UpdateOne(ctx,
			bson.M{"_id": categoryID},
			bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "category not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "category deactivated"})
	}
}
