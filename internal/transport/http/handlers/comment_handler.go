package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/service"
	"github.com/example/blogicum/internal/transport/http/middleware"
	"github.com/example/blogicum/internal/validation"
)

type CommentHandler struct {
	Responder
	comments *service.CommentService
}

func NewCommentHandler(r Responder, comments *service.CommentService) *CommentHandler {
	return &CommentHandler{Responder: r, comments: comments}
}

func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	var in service.CommentInput
	if err := c.ShouldBind(&in); err != nil {
		h.Form(c, "comment", gin.H{"Title": "Comment", "PostID": postID, "Form": in},
			validation.Errors{"__all__": "The submitted form could not be read."})
		return
	}

	_, err := h.comments.Create(c.Request.Context(), middleware.Viewer(c), postID, in)
	if errors.Is(err, service.ErrNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.Form(c, "comment", gin.H{"Title": "Comment", "PostID": postID, "Form": in}, err)
		return
	}
	h.Redirect(c, postURL(postID))
}

func (h *CommentHandler) EditForm(c *gin.Context) {
	comment, ok := h.lookup(c)
	if !ok {
		return
	}
	h.HTML(c, http.StatusOK, "comment", gin.H{
		"Title":   "Edit comment",
		"PostID":  comment.PostID,
		"Comment": comment,
		"Form":    service.CommentInput{Text: comment.Text},
	})
}

func (h *CommentHandler) Update(c *gin.Context) {
	comment, ok := h.lookup(c)
	if !ok {
		return
	}
	data := gin.H{"Title": "Edit comment", "PostID": comment.PostID, "Comment": comment}

	var in service.CommentInput
	if err := c.ShouldBind(&in); err != nil {
		data["Form"] = in
		h.Form(c, "comment", data, validation.Errors{"__all__": "The submitted form could not be read."})
		return
	}
	_, outcome, err := h.comments.Update(c.Request.Context(), middleware.Viewer(c), comment.PostID, comment.ID, in)
	if err != nil {
		data["Form"] = in
		h.Form(c, "comment", data, err)
		return
	}
	if !h.handled(c, outcome, comment.PostID) {
		h.Redirect(c, postURL(comment.PostID))
	}
}

func (h *CommentHandler) DeleteForm(c *gin.Context) {
	comment, ok := h.lookup(c)
	if !ok {
		return
	}
	h.HTML(c, http.StatusOK, "comment", gin.H{
		"Title":    "Delete comment",
		"PostID":   comment.PostID,
		"Comment":  comment,
		"Deleting": true,
	})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	postID, ok := paramID(c, "id")
	commentID, ok2 := paramID(c, "cid")
	if !ok || !ok2 {
		h.NotFound(c)
		return
	}
	outcome, err := h.comments.Delete(c.Request.Context(), middleware.Viewer(c), postID, commentID)
	if err != nil {
		h.ServerError(c, err)
		return
	}
	if !h.handled(c, outcome, postID) {
		h.Redirect(c, postURL(postID))
	}
}

func (h *CommentHandler) lookup(c *gin.Context) (*models.Comment, bool) {
	postID, ok := paramID(c, "id")
	commentID, ok2 := paramID(c, "cid")
	if !ok || !ok2 {
		h.NotFound(c)
		return nil, false
	}
	comment, outcome, err := h.comments.Lookup(c.Request.Context(), middleware.Viewer(c), postID, commentID)
	if err != nil {
		h.ServerError(c, err)
		return nil, false
	}
	if h.handled(c, outcome, postID) {
		return nil, false
	}
	return comment, true
}

func (h *CommentHandler) handled(c *gin.Context, outcome service.Outcome, postID uint) bool {
	switch outcome {
	case service.NotFound:
		h.NotFound(c)
		return true
	case service.Forbidden:
		h.Redirect(c, postURL(postID))
		return true
	}
	return false
}
