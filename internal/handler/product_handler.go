package handler

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"refurbstock/internal/middleware"
	"refurbstock/internal/permission"
	"refurbstock/internal/repository"
	"refurbstock/internal/service"
	"refurbstock/pkg/pagination"
	"refurbstock/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type ProductHandler struct {
	productService service.ProductService
	gate           *middleware.Gate
}

func NewProductHandler(productService service.ProductService, gate *middleware.Gate) *ProductHandler {
	return &ProductHandler{productService: productService, gate: gate}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.gate.Require(permission.Product, permission.List), h.ListProducts)
		products.GET("/:serial", h.gate.Require(permission.Product, permission.List), h.GetProduct)
		products.GET("/:serial/history", h.gate.Require(permission.Product, permission.List), h.History)
		products.POST("", h.gate.Require(permission.Product, permission.Create), h.CreateProduct)
		products.PUT("/:serial", h.gate.Require(permission.Product, permission.Edit), h.UpdateProduct)
		products.PATCH("/:serial/status", h.gate.RequireStatusChange(), h.UpdateStatus)
		products.POST("/:serial/images", h.gate.Require(permission.Product, permission.Edit), h.AddImages)
		products.DELETE("/:serial/images/:index", h.gate.Require(permission.Product, permission.Edit), h.RemoveImage)
		products.DELETE("/:serial", h.gate.Require(permission.Product, permission.Delete), h.DeleteProduct)
	}
}

// ListProducts returns a filtered page of products
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        page         query     int     false  "Page"
// @Param        limit        query     int     false  "Page size"
// @Param        search       query     string  false  "Serial, model number or identifier"
// @Param        status       query     string  false  "checkin, checkedout or unset"
// @Param        warehouse    query     string  false  "Warehouse"
// @Param        device_type  query     string  false  "Device type"
// @Success      200          {object}  response.Response{data=response.Paginated{items=[]model.Product}}
// @Router       /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.ProductFilter{
		Search:     p.Search,
		Warehouse:  c.Query("warehouse"),
		DeviceType: c.Query("device_type"),
	}
	if status, ok := c.GetQuery("status"); ok {
		if status == "unset" {
			status = ""
		}
		filter.Status = &status
	}

	products, total, err := h.productService.ListProducts(c.Request.Context(), p.Page, p.Limit, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Result(products, total)))
}

// @Summary      Get product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        serial  path      string  true  "Serial number"
// @Success      200     {object}  response.Response{data=model.Product}
// @Failure      404     {object}  response.Response
// @Router       /products/{serial} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("serial"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Product movement history
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        serial  path      string  true   "Serial number"
// @Param        limit   query     int     false  "Max entries"
// @Success      200     {object}  response.Response{data=[]model.ProductMovement}
// @Router       /products/{serial}/history [get]
func (h *ProductHandler) History(c *gin.Context) {
	rows, err := h.productService.History(c.Request.Context(), c.Param("serial"), pagination.Parse(c).Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// @Summary      Create product
// @Description  Creating into checkin or checkedout also needs the matching status permission
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ProductRequest  true  "Product"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// @Summary      Update product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Description  Only the fields present in the body change
// @Param        serial   path      string                        true  "Serial number"
// @Param        payload  body      service.UpdateProductRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Product}
// @Router       /products/{serial} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), c.Param("serial"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Change product status
// @Description  checkedout needs checkOut.checkout; checkin and "" need checkIn.checkin
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        serial   path      string                       true  "Serial number"
// @Param        payload  body      service.UpdateStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      403      {object}  response.Response
// @Router       /products/{serial}/status [patch]
func (h *ProductHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		bindError(c, err)
		return
	}

	product, err := h.productService.UpdateStatus(c.Request.Context(), c.Param("serial"), *req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Add images
// @Description  All files are uploaded before the product changes; any failure leaves it untouched
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        serial  path      string  true  "Serial number"
// @Param        images  formData  file    true  "Images"
// @Success      200     {object}  response.Response{data=model.Product}
// @Failure      502     {object}  response.Response
// @Router       /products/{serial}/images [post]
func (h *ProductHandler) AddImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		bindError(c, err)
		return
	}

	headers := form.File["images"]
	files := make([]service.Upload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			bindError(c, err)
			return
		}
		opened = append(opened, f)
		files = append(files, service.Upload{Name: fh.Filename, Reader: f})
	}

	product, err := h.productService.AddImages(c.Request.Context(), c.Param("serial"), files)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Remove image
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        serial  path      string  true  "Serial number"
// @Param        index   path      int     true  "Image index"
// @Success      200     {object}  response.Response{data=model.Product}
// @Router       /products/{serial}/images/{index} [delete]
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		bindError(c, err)
		return
	}

	product, err := h.productService.RemoveImage(c.Request.Context(), c.Param("serial"), index)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Delete product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        serial  path      string  true  "Serial number"
// @Success      200     {object}  response.Response
// @Router       /products/{serial} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.DeleteProduct(c.Request.Context(), c.Param("serial")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Product deleted"}))
}
