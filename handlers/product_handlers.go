package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mabletask/companion/models"
	"mabletask/companion/store"
	"mabletask/companion/utils"
)

type ProductHandlers struct {
	Products *store.ProductStore
}

func NewProductHandlers(products *store.ProductStore) *ProductHandlers {
	return &ProductHandlers{Products: products}
}

func (h *ProductHandlers) List(c *gin.Context) {
	var f models.ProductFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}
	if !utils.IsValidCustomerType(f.CustomerType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_type must be b2b, b2c or all"})
		return
	}
	products := h.Products.Filter(f)
	c.JSON(http.StatusOK, models.ProductList{Count: len(products), Products: products})
}

func (h *ProductHandlers) Get(c *gin.Context) {
	p, err := h.Products.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}
