package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// SaveFile stores an uploaded file under folder with a generated name and
// returns the stored filename.
func SaveFile(file multipart.File, header *multipart.FileHeader, folder string) (string, error) {
	if err := EnsureDir(folder); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s%s", GenerateID(12), filepath.Ext(SanitizeFilename(header.Filename)))
	filePath := filepath.Join(folder, filename)

	out, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	_, err = io.Copy(out, file)
	if err != nil {
		return "", err
	}

	return filename, nil
}

// CreateThumb writes an <id>_thumb.jpg next to the stored image, resized to
// fit width x height.
func CreateThumb(id, folder, ext string, width, height int) {
	src, err := imaging.Open(filepath.Join(folder, id+ext))
	if err != nil {
		return
	}
	thumb := imaging.Fit(src, width, height, imaging.Lanczos)
	_ = imaging.Save(thumb, filepath.Join(folder, id+"_thumb.jpg"))
}
