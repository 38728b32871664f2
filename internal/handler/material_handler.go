package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MohitNilvarn/TAP/internal/pkg/response"
	"github.com/MohitNilvarn/TAP/internal/service"
)

type MaterialHandler struct {
	materials *service.MaterialService
}

func NewMaterialHandler(materials *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{materials: materials}
}

func (h *MaterialHandler) Upload(c *gin.Context) {
	file, filename, size, err := openFormFile(c, "file")
	if err != nil {
		handleError(c, err)
		return
	}
	defer file.Close()

	mat, err := h.materials.Upload(c.Request.Context(), getUserID(c), c.Param("id"), filename, file, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, mat)
}

func (h *MaterialHandler) List(c *gin.Context) {
	materials, err := h.materials.List(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"materials": materials})
}

func (h *MaterialHandler) Get(c *gin.Context) {
	mat, err := h.materials.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, mat)
}

// Process triggers ingestion immediately instead of waiting for the
// sweep job.
func (h *MaterialHandler) Process(c *gin.Context) {
	mat, err := h.materials.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.materials.Process(c.Request.Context(), mat.ID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *MaterialHandler) Delete(c *gin.Context) {
	if err := h.materials.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
