package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/MohitNilvarn/TAP/internal/pkg/errcode"
	"github.com/MohitNilvarn/TAP/internal/pkg/response"
	"github.com/MohitNilvarn/TAP/internal/service"
)

type ContentHandler struct {
	contents *service.ContentService
}

func NewContentHandler(contents *service.ContentService) *ContentHandler {
	return &ContentHandler{contents: contents}
}

func (h *ContentHandler) List(c *gin.Context) {
	items, err := h.contents.List(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"content": items})
}

func (h *ContentHandler) Get(c *gin.Context) {
	gc, err := h.contents.Get(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("type"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gc)
}

type editContentRequest struct {
	Content json.RawMessage `json:"content" binding:"required"`
}

func (h *ContentHandler) Edit(c *gin.Context) {
	var req editContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "content is required")
		return
	}
	gc, err := h.contents.Edit(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("type"), req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gc)
}

func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.contents.Delete(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("type")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
