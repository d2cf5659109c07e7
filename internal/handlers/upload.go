package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"premium-homes/internal/models"
)

// UploadURLPrefix is where stored images are served from.
const UploadURLPrefix = "/uploads/"

var allowedImageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// UploadHandler stores images posted as multipart form data.
type UploadHandler struct {
	dir      string
	maxBytes int64
	maxFiles int
	logger   *zap.Logger
}

func NewUploadHandler(dir string, maxBytes int64, maxFiles int, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{dir: dir, maxBytes: maxBytes, maxFiles: maxFiles, logger: logger}
}

// Image accepts a single file in the "image" field.
func (h *UploadHandler) Image(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	img, err := h.save(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, img)
}

// Images accepts up to maxFiles files in the "images" field.
func (h *UploadHandler) Images(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	files := form.File["images"]
	if h.maxFiles > 0 && len(files) > h.maxFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Too many files (max %d)", h.maxFiles)})
		return
	}

	// validate everything before writing anything
	for _, f := range files {
		if err := h.check(f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	images := make([]models.UploadedImage, 0, len(files))
	for _, f := range files {
		img, err := h.save(f)
		if err != nil {
			h.logger.Error("failed to store upload", zap.String("file", f.Filename), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload images"})
			return
		}
		images = append(images, *img)
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

// check enforces size, extension and sniffed content type.
func (h *UploadHandler) check(fh *multipart.FileHeader) error {
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return fmt.Errorf("File %s exceeds the %d MB limit", fh.Filename, h.maxBytes>>20)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return fmt.Errorf("Only image files are allowed (jpeg, jpg, png, gif, webp)")
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("Failed to read %s", fh.Filename)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return fmt.Errorf("Only image files are allowed (jpeg, jpg, png, gif, webp)")
	}
	return nil
}

func (h *UploadHandler) save(fh *multipart.FileHeader) (*models.UploadedImage, error) {
	if err := h.check(fh); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], strings.ToLower(filepath.Ext(fh.Filename)))
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(h.dir, name))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return nil, err
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	h.logger.Info("image uploaded", zap.String("filename", name), zap.Int64("size", fh.Size))
	return &models.UploadedImage{
		URL:          UploadURLPrefix + name,
		Filename:     name,
		OriginalName: fh.Filename,
		Size:         fh.Size,
	}, nil
}
