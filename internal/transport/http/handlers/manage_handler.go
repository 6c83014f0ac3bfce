package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/blogicum/internal/service"
	"github.com/example/blogicum/internal/transport/http/middleware"
)

const (
	manageCategoriesPath = "/manage/categories/"
	manageLocationsPath  = "/manage/locations/"
)

// ManageHandler serves the staff pages for categories and locations.
type ManageHandler struct {
	Responder
	catalog *service.CatalogService
}

func NewManageHandler(r Responder, catalog *service.CatalogService) *ManageHandler {
	return &ManageHandler{Responder: r, catalog: catalog}
}

func (h *ManageHandler) Categories(c *gin.Context) {
	h.categories(c, service.CategoryInput{IsPublished: true}, nil)
}

func (h *ManageHandler) CreateCategory(c *gin.Context) {
	var in service.CategoryInput
	_ = c.ShouldBind(&in)
	if _, err := h.catalog.CreateCategory(c.Request.Context(), middleware.Viewer(c), in); err != nil {
		h.categories(c, in, err)
		return
	}
	h.Redirect(c, manageCategoriesPath)
}

func (h *ManageHandler) ToggleCategory(c *gin.Context) {
	h.mutate(c, manageCategoriesPath, func(id uint) error {
		return h.catalog.SetCategoryPublished(c.Request.Context(), middleware.Viewer(c), id, publishFlag(c))
	})
}

func (h *ManageHandler) DeleteCategory(c *gin.Context) {
	h.mutate(c, manageCategoriesPath, func(id uint) error {
		return h.catalog.DeleteCategory(c.Request.Context(), middleware.Viewer(c), id)
	})
}

func (h *ManageHandler) Locations(c *gin.Context) {
	h.locations(c, service.LocationInput{IsPublished: true}, nil)
}

func (h *ManageHandler) CreateLocation(c *gin.Context) {
	var in service.LocationInput
	_ = c.ShouldBind(&in)
	if _, err := h.catalog.CreateLocation(c.Request.Context(), middleware.Viewer(c), in); err != nil {
		h.locations(c, in, err)
		return
	}
	h.Redirect(c, manageLocationsPath)
}

func (h *ManageHandler) ToggleLocation(c *gin.Context) {
	h.mutate(c, manageLocationsPath, func(id uint) error {
		return h.catalog.SetLocationPublished(c.Request.Context(), middleware.Viewer(c), id, publishFlag(c))
	})
}

func (h *ManageHandler) DeleteLocation(c *gin.Context) {
	h.mutate(c, manageLocationsPath, func(id uint) error {
		return h.catalog.DeleteLocation(c.Request.Context(), middleware.Viewer(c), id)
	})
}

func (h *ManageHandler) categories(c *gin.Context, form service.CategoryInput, formErr error) {
	categories, err := h.catalog.Categories(c.Request.Context(), middleware.Viewer(c))
	if h.refused(c, err) {
		return
	}
	data := gin.H{"Title": "Categories", "Categories": categories, "Form": form}
	if formErr != nil {
		h.Form(c, "manage_categories", data, formErr)
		return
	}
	h.HTML(c, http.StatusOK, "manage_categories", data)
}

func (h *ManageHandler) locations(c *gin.Context, form service.LocationInput, formErr error) {
	locations, err := h.catalog.Locations(c.Request.Context(), middleware.Viewer(c))
	if h.refused(c, err) {
		return
	}
	data := gin.H{"Title": "Locations", "Locations": locations, "Form": form}
	if formErr != nil {
		h.Form(c, "manage_locations", data, formErr)
		return
	}
	h.HTML(c, http.StatusOK, "manage_locations", data)
}

func (h *ManageHandler) mutate(c *gin.Context, back string, apply func(id uint) error) {
	id, ok := paramID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	if h.refused(c, apply(id)) {
		return
	}
	h.Redirect(c, back)
}

// refused writes the response for any error. Non-staff users are sent home.
func (h *ManageHandler) refused(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrForbidden):
		h.Redirect(c, "/")
	case errors.Is(err, service.ErrNotFound):
		h.NotFound(c)
	default:
		h.ServerError(c, err)
	}
	return true
}

func publishFlag(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.PostForm("is_published"))
	return v
}
