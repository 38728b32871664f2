package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MohitNilvarn/TAP/internal/pkg/errcode"
	"github.com/MohitNilvarn/TAP/internal/pkg/response"
	"github.com/MohitNilvarn/TAP/internal/service"
)

type LectureHandler struct {
	lectures *service.LectureService
}

func NewLectureHandler(lectures *service.LectureService) *LectureHandler {
	return &LectureHandler{lectures: lectures}
}

type createLectureRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *LectureHandler) Create(c *gin.Context) {
	var req createLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "title is required")
		return
	}
	lec, err := h.lectures.Create(c.Request.Context(), getUserID(c), c.Param("id"), req.Title, req.Description)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, lec)
}

func (h *LectureHandler) List(c *gin.Context) {
	lectures, err := h.lectures.List(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"lectures": lectures})
}

func (h *LectureHandler) Get(c *gin.Context) {
	lec, err := h.lectures.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, lec)
}

func (h *LectureHandler) Segments(c *gin.Context) {
	segments, err := h.lectures.Segments(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"segments": segments})
}

func (h *LectureHandler) UploadAudio(c *gin.Context) {
	file, filename, size, err := openFormFile(c, "file")
	if err != nil {
		handleError(c, err)
		return
	}
	defer file.Close()

	err = h.lectures.UploadAudio(c.Request.Context(), getUserID(c), c.Param("id"), filename, file, size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *LectureHandler) Transcribe(c *gin.Context) {
	if err := h.lectures.Transcribe(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

type generateRequest struct {
	ContentTypes []string `json:"content_types"`
}

func (h *LectureHandler) Generate(c *gin.Context) {
	var req generateRequest
	// Empty body means generate everything.
	_ = c.ShouldBindJSON(&req)

	err := h.lectures.Generate(c.Request.Context(), getUserID(c), c.Param("id"), req.ContentTypes)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "generating"})
}

func (h *LectureHandler) Delete(c *gin.Context) {
	if err := h.lectures.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
