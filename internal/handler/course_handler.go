package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MohitNilvarn/TAP/internal/pkg/errcode"
	"github.com/MohitNilvarn/TAP/internal/pkg/response"
	"github.com/MohitNilvarn/TAP/internal/service"
)

type CourseHandler struct {
	courses *service.CourseService
}

func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

type createCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *CourseHandler) Create(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "title is required")
		return
	}
	course, err := h.courses.Create(c.Request.Context(), getUserID(c), req.Title, req.Description)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, course)
}

func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, course)
}

func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"courses": courses})
}

func (h *CourseHandler) Stats(c *gin.Context) {
	count, err := h.courses.Stats(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"document_count": count})
}

func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
