package models

// UploadedImage describes an image stored by the upload endpoints
type UploadedImage struct {
	URL          string `json:"url"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}
