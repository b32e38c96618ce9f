package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/file"
)

// FileUploadResponse describes a stored document, such as a guest's ID proof.
type FileUploadResponse struct {
	Message      string    `json:"message"`
	FileID       string    `json:"file_id"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func NewFileUploadResponse(f *file.File) FileUploadResponse {
	res := FileUploadResponse{
		Message:     "file uploaded successfully",
		FileID:      f.ID,
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Size:        f.Size,
		URL:         file.FileURL(f.ID),
		UploadedAt:  f.CreatedAt,
	}
	if f.ThumbnailPath != nil {
		thumb := file.ThumbnailURL(f.ID)
		res.ThumbnailURL = &thumb
	}
	return res
}
