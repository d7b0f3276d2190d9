package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"koselimart/internal/models"
	"koselimart/internal/store"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=100"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,gte=0,lte=100"`
}

type guestCartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type mergeCartRequest struct {
	GuestCartItems []guestCartItem `json:"guestCartItems" binding:"required"`
}

func cartResponse(cart *models.Cart) gin.H {
	return gin.H{
		"cart":       cart,
		"totalItems": cart.TotalItems(),
		"totalPrice": cart.TotalPrice(),
	}
}

// loadOrNewCart fetches the caller's cart or builds an empty one; carts are
// created lazily on first persist.
func loadOrNewCart(ctx context.Context, carts *store.MongoCarts, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := carts.GetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// GetCart returns the caller's cart with lines for vanished or unavailable
// products pruned. GET /api/cart.
func GetCart(db *mongo.Database) gin.HandlerFunc {
	carts := store.NewMongoCarts(db)
	products := store.NewMongoProducts(db)

	return func(c *gin.Context) {
		const route = "GET /api/cart"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := loadOrNewCart(ctx, carts, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		valid := make([]models.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			product, err := products.Get(ctx, item.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if !product.Available() || !product.HasStock(1) {
				continue
			}
			valid = append(valid, item)
		}

		if len(valid) != len(cart.Items) {
			cart.Items = valid
			if err := carts.Upsert(ctx, cart); err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
		}

		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// AddToCart merges a quantity into the caller's cart after checking current
// availability and stock. The check is best-effort, never a reservation.
// POST /api/cart/add.
func AddToCart(db *mongo.Database) gin.HandlerFunc {
	carts := store.NewMongoCarts(db)
	products := store.NewMongoProducts(db)

	return func(c *gin.Context) {
		const route = "POST /api/cart/add"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		var req addToCartRequest
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

		product, err := products.Get(ctx, productID)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if !product.Available() {
			respondWithError(c, http.StatusBadRequest, route, "product is not available")
			return
		}

		cart, err := loadOrNewCart(ctx, carts, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		requested := req.Quantity
		if existing := cart.FindItem(productID); existing != nil {
			requested += existing.Quantity
		}
		if !product.HasStock(requested) {
			log.Printf("[%s] insufficient stock for product %s", route, productID.Hex())
			c.JSON(http.StatusBadRequest, gin.H{
				"error":          "insufficient stock",
				"availableStock": product.Stock.Quantity,
			})
			return
		}

		cart.AddItem(productID, req.Quantity, product.Price)
		if err := carts.Upsert(ctx, cart); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] product %s x%d added for user %s", route, productID.Hex(), req.Quantity, userID.Hex())
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// UpdateCartItem sets a line's quantity; zero removes the line.
// PUT /api/cart/update/:productId.
func UpdateCartItem(db *mongo.Database) gin.HandlerFunc {
	carts := store.NewMongoCarts(db)
	products := store.NewMongoProducts(db)

	return func(c *gin.Context) {
		const route = "PUT /api/cart/update/:productId"
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

		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		quantity := *req.Quantity

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.GetByUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "cart not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if cart.FindItem(productID) == nil {
			respondWithError(c, http.StatusNotFound, route, "item not found in cart")
			return
		}

		if quantity > 0 {
			product, err := products.Get(ctx, productID)
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if !product.HasStock(quantity) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":          "insufficient stock",
					"availableStock": product.Stock.Quantity,
				})
				return
			}
			// refresh the price snapshot alongside the quantity
			item := cart.FindItem(productID)
			item.Quantity = quantity
			item.Price = product.Price
		} else {
			cart.RemoveItem(productID)
		}

		if err := carts.Upsert(ctx, cart); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// RemoveCartItem deletes a line. DELETE /api/cart/remove/:productId.
func RemoveCartItem(db *mongo.Database) gin.HandlerFunc {
	carts := store.NewMongoCarts(db)

	return func(c *gin.Context) {
		const route = "DELETE /api/cart/remove/:productId"
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

		cart, err := carts.GetByUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "cart not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if !cart.RemoveItem(productID) {
			respondWithError(c, http.StatusNotFound, route, "item not found in cart")
			return
		}

		if err := carts.Upsert(ctx, cart); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// ClearCart empties the cart; the cart document persists for reuse.
// DELETE /api/cart/clear.
func ClearCart(db *mongo.Database) gin.HandlerFunc {
	carts := store.NewMongoCarts(db)

	return func(c *gin.Context) {
		const route = "DELETE /api/cart/clear"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := carts.Clear(ctx, userID); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":    "cart cleared",
			"totalItems": 0,
			"totalPrice": 0,
		})
	}
}

// GetCartCount returns the item count for the header badge. GET /api/cart/count.
func GetCartCount(db *mongo.Database) gin.HandlerFunc {
	carts := store.NewMongoCarts(db)

	return func(c *gin.Context) {
		const route = "GET /api/cart/count"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count := 0
		cart, err := carts.GetByUser(ctx, userID)
		if err == nil {
			count = cart.TotalItems()
		} else if !errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

// MergeCart folds a guest cart into the caller's cart at login. Lines whose
// product is missing, inactive or out of stock are skipped silently.
// POST /api/cart/merge.
func MergeCart(db *mongo.Database) gin.HandlerFunc {
	carts := store.NewMongoCarts(db)
	products := store.NewMongoProducts(db)

	return func(c *gin.Context) {
		const route = "POST /api/cart/merge"
		defer handlePanic(c, route)

		userID, ok := callerID(c)
		if !ok {
			return
		}

		var req mergeCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := loadOrNewCart(ctx, carts, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		for _, guestItem := range req.GuestCartItems {
			productID, err := primitive.ObjectIDFromHex(guestItem.ProductID)
			if err != nil || guestItem.Quantity < 1 {
				continue
			}

			product, err := products.Get(ctx, productID)
			if err != nil {
				continue
			}
			if !product.Available() || !product.HasStock(guestItem.Quantity) {
				continue
			}

			cart.AddItem(productID, guestItem.Quantity, product.Price)
		}

		if err := carts.Upsert(ctx, cart); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] guest cart merged for user %s", route, userID.Hex())
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}
