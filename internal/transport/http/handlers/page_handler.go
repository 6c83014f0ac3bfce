package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PageHandler struct {
	Responder
}

func NewPageHandler(r Responder) *PageHandler {
	return &PageHandler{Responder: r}
}

func (h *PageHandler) About(c *gin.Context) {
	h.HTML(c, http.StatusOK, "about", gin.H{"Title": "About"})
}

func (h *PageHandler) Rules(c *gin.Context) {
	h.HTML(c, http.StatusOK, "rules", gin.H{"Title": "Rules"})
}
