package validator

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is shared; validator.New caches struct metadata.
var Validator = validator.New()

// Struct checks the struct fields against their validate tags.
func Struct(val interface{}) error {
	return Validator.Struct(val)
}

// https://html.spec.whatwg.org/#valid-e-mail-address
var emailRegex = regexp.MustCompile(`^(?P<name>[a-zA-Z0-9.!#$%&'*+/=?^_ \x60{|}~-]+)@(?P<domain>[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*)$`)

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)

	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const MaxUploadSize = 10 << 20

type UploadKind string

const (
	UploadImage UploadKind = "image"
	UploadPDF   UploadKind = "pdf"
)

var (
	ErrUnsupportedUpload = errors.New("only PNG, JPEG images or PDF files are accepted")
	ErrUploadTooLarge    = errors.New("file exceeds the 10MB limit")
	ErrEmptyUpload       = errors.New("file is empty")
)

var uploadTypes = map[string]struct {
	kind UploadKind
	exts []string
}{
	"image/png":       {UploadImage, []string{".png"}},
	"image/jpeg":      {UploadImage, []string{".jpg", ".jpeg"}},
	"application/pdf": {UploadPDF, []string{".pdf"}},
}

// ValidateUpload classifies a doubt upload by content type and checks that the
// file extension agrees with it. It returns the canonical extension.
func ValidateUpload(filename, contentType string, size int64) (UploadKind, string, error) {
	if size <= 0 {
		return "", "", ErrEmptyUpload
	}
	if size > MaxUploadSize {
		return "", "", ErrUploadTooLarge
	}

	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	spec, ok := uploadTypes[contentType]
	if !ok {
		return "", "", ErrUnsupportedUpload
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range spec.exts {
		if ext == allowed {
			return spec.kind, ext, nil
		}
	}
	if ext == "" {
		return spec.kind, spec.exts[0], nil
	}
	return "", "", ErrUnsupportedUpload
}
