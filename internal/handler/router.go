package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MohitNilvarn/TAP/internal/middleware"
)

type RouterDeps struct {
	Courses   *CourseHandler
	Materials *MaterialHandler
	Lectures  *LectureHandler
	Content   *ContentHandler
	Files     *FileHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/courses", deps.Courses.Create)
	authGroup.GET("/courses", deps.Courses.List)
	authGroup.GET("/courses/:id", deps.Courses.Get)
	authGroup.GET("/courses/:id/stats", deps.Courses.Stats)
	authGroup.DELETE("/courses/:id", deps.Courses.Delete)

	authGroup.POST("/courses/:id/materials", deps.Materials.Upload)
	authGroup.GET("/courses/:id/materials", deps.Materials.List)
	authGroup.GET("/materials/:id", deps.Materials.Get)
	authGroup.POST("/materials/:id/process", deps.Materials.Process)
	authGroup.DELETE("/materials/:id", deps.Materials.Delete)

	authGroup.POST("/courses/:id/lectures", deps.Lectures.Create)
	authGroup.GET("/courses/:id/lectures", deps.Lectures.List)
	authGroup.GET("/lectures/:id", deps.Lectures.Get)
	authGroup.GET("/lectures/:id/segments", deps.Lectures.Segments)
	authGroup.POST("/lectures/:id/audio", deps.Lectures.UploadAudio)
	authGroup.POST("/lectures/:id/transcribe", deps.Lectures.Transcribe)
	authGroup.POST("/lectures/:id/generate", deps.Lectures.Generate)
	authGroup.DELETE("/lectures/:id", deps.Lectures.Delete)

	authGroup.GET("/lectures/:id/content", deps.Content.List)
	authGroup.GET("/lectures/:id/content/:type", deps.Content.Get)
	authGroup.PUT("/lectures/:id/content/:type", deps.Content.Edit)
	authGroup.DELETE("/lectures/:id/content/:type", deps.Content.Delete)

	api.GET("/files/:key", deps.Files.Get)
}
