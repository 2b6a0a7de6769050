package imaging

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

const DefaultMaxUploadBytes = 5 * 1024 * 1024

var (
	ErrEmptyFile = errors.New("imaging: file is empty")
	ErrNotImage  = errors.New("imaging: file is not an image")
	ErrTooLarge  = errors.New("imaging: file exceeds the size limit")
)

// Validate checks that a candidate upload is an image within maxBytes.
// An empty contentType is resolved from the file extension.
func Validate(name, contentType string, size int64, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if size <= 0 {
		return ErrEmptyFile
	}

	ct := normalizeType(contentType)
	if ct == "" || ct == "application/octet-stream" {
		ct = normalizeType(mime.TypeByExtension(strings.ToLower(filepath.Ext(name))))
	}
	if !strings.HasPrefix(ct, "image/") {
		return ErrNotImage
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %d bytes > %d bytes", ErrTooLarge, size, maxBytes)
	}
	return nil
}

// UserMessage maps validation and processing errors to the text shown to users.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrTooLarge):
		return "A imagem excede o tamanho máximo permitido"
	case errors.Is(err, ErrNotImage), errors.Is(err, ErrEmptyFile):
		return "Por favor, selecione um arquivo de imagem válido"
	case errors.Is(err, ErrInvalidRect):
		return "Área de recorte inválida"
	case errors.Is(err, ErrDecode), errors.Is(err, ErrInvalidDataURL):
		return "Não foi possível ler a imagem"
	default:
		return "Falha ao processar a imagem"
	}
}
