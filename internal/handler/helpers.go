package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MohitNilvarn/TAP/internal/filestore"
	"github.com/MohitNilvarn/TAP/internal/middleware"
	"github.com/MohitNilvarn/TAP/internal/pkg/errcode"
	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
	"github.com/MohitNilvarn/TAP/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrUnsupportedFileType):
		response.Error(c, errcode.ErrUnsupportedFileType, err.Error())
	case errors.Is(err, appErr.ErrGenerationInProgress):
		response.Error(c, errcode.ErrGenerationInProgress, "generation already in progress")
	case errors.Is(err, appErr.ErrNoTranscript):
		response.Error(c, errcode.ErrInvalid, "lecture has no transcript")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

// openFormFile pulls the multipart field and hands back a seekable
// reader for the filestore.
func openFormFile(c *gin.Context, field string) (filestore.ReadSeekCloser, string, int64, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", 0, appErr.ErrInvalid
	}
	opened, err := file.Open()
	if err != nil {
		return nil, "", 0, appErr.ErrInvalid
	}
	if _, err := opened.Seek(0, io.SeekStart); err != nil {
		opened.Close()
		return nil, "", 0, appErr.ErrInvalid
	}
	return opened, file.Filename, file.Size, nil
}

func sniffContentType(r filestore.ReadSeekCloser) string {
	buf := make([]byte, 512)
	read, err := r.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "application/octet-stream"
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "application/octet-stream"
	}
	return http.DetectContentType(buf[:read])
}
