package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/models"
	"github.com/gin-gonic/gin"
)

const multipartMemory = 8 << 20

func parseMultipart(c *gin.Context) error {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrBadRequest, err)
	}
	return nil
}

// formImage reads one uploaded file part.
func formImage(form *multipart.Form, field string) (models.Image, error) {
	files := form.File[field]
	if len(files) == 0 {
		return models.Image{}, fmt.Errorf("%w: missing file %q", common.ErrBadRequest, field)
	}
	return readFile(files[0])
}

func readFile(fh *multipart.FileHeader) (models.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Image{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.Image{}, err
	}
	return models.Image{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}
