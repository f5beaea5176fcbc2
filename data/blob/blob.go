package blob

import (
	"mime"
	"strings"

	"github.com/glekoz/bwfilter/internal/models"
	"github.com/vincent-petithory/dataurl"
)

// MediaType normalizes a declared MIME type to "type/subtype" without parameters.
func MediaType(declared string) (string, error) {
	loc := "blob.MediaType"
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", models.NewError(loc, declared, err)
	}
	if strings.Count(mt, "/") != 1 {
		return "", models.NewError(loc, declared, models.ErrInvalidInput)
	}
	return mt, nil
}

func Encode(mediaType string, data []byte) (models.Blob, error) {
	mt, err := MediaType(mediaType)
	if err != nil {
		return "", err
	}
	return models.Blob(dataurl.New(data, mt).String()), nil
}

// Decode returns the embedded media type and the payload bytes.
func Decode(b models.Blob) (string, []byte, error) {
	loc := "blob.Decode"
	if b == "" {
		return "", nil, models.NewError(loc, "empty blob", models.ErrInvalidInput)
	}
	du, err := dataurl.DecodeString(string(b))
	if err != nil {
		return "", nil, models.NewError(loc, "dataurl.DecodeString", err)
	}
	return du.MediaType.ContentType(), du.Data, nil
}
