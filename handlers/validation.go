package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const maxImageSize = 2048 * 1024

var (
	allowedImageExtensions = []string{"jpg", "png", "jpeg", "gif", "svg"}
	allowedImageMIMEs      = []string{"image/jpeg", "image/png", "image/gif", "image/svg+xml"}
)

// ValidationError carries every failed rule message, keyed by field.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

type imageUpload struct {
	header *multipart.FileHeader
	mime   *mimetype.MIME
}

func (u *imageUpload) extension() string {
	return strings.TrimPrefix(filepath.Ext(u.header.Filename), ".")
}

// keepfileInput is the submitted form after trimming. Empty strings count as
// absent, like null.
type keepfileInput struct {
	name      string
	nameIsStr bool

	desc      *string
	descSet   bool
	descIsStr bool

	image        *imageUpload
	imageNotFile bool
}

func (in *keepfileInput) hasImage() bool {
	return in.image != nil
}

// rule passes when the check returns true.
type rule struct {
	message string
	check   func(in *keepfileInput) bool
}

type constraint struct {
	field string
	rules []rule
}

// Validator evaluates the keepfile constraint list.
type Validator struct {
	validate    *validator.Validate
	constraints []constraint
}

func NewValidator() *Validator {
	v := &Validator{validate: validator.New()}
	name := func(in *keepfileInput) string { return in.name }

	v.constraints = []constraint{
		{field: "name", rules: []rule{
			v.tag(name, "required", "The name field is required."),
			{message: "The name must be a string.", check: func(in *keepfileInput) bool { return in.nameIsStr }},
			v.tag(name, "max=50", "The name must not be greater than 50 characters."),
		}},
		{field: "image", rules: []rule{
			{message: "The image must be an image.", check: isImage},
			{message: "The image must be a file of type: " + strings.Join(allowedImageExtensions, ", ") + ".", check: hasAllowedType},
			{message: fmt.Sprintf("The image must not be greater than %d kilobytes.", maxImageSize/1024), check: withinSize},
		}},
		{field: "desc", rules: []rule{
			{message: "The desc must be a string.", check: func(in *keepfileInput) bool { return in.descIsStr }},
		}},
	}
	return v
}

// tag builds a rule from a validator tag applied to a string field.
func (v *Validator) tag(get func(*keepfileInput) string, tag, message string) rule {
	return rule{message: message, check: func(in *keepfileInput) bool {
		return v.validate.Var(get(in), tag) == nil
	}}
}

// Validate runs every rule of every field and returns a *ValidationError
// listing all failures, or nil.
func (v *Validator) Validate(in *keepfileInput) error {
	fields := map[string][]string{}
	for _, c := range v.constraints {
		for _, r := range c.rules {
			if !r.check(in) {
				fields[c.field] = append(fields[c.field], r.message)
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func isImage(in *keepfileInput) bool {
	if in.imageNotFile {
		return false
	}
	if !in.hasImage() {
		return true
	}
	return strings.HasPrefix(in.image.mime.String(), "image/")
}

func hasAllowedType(in *keepfileInput) bool {
	if in.imageNotFile {
		return false
	}
	if !in.hasImage() {
		return true
	}
	if !containsFold(allowedImageExtensions, in.image.extension()) {
		return false
	}
	for _, m := range allowedImageMIMEs {
		if in.image.mime.Is(m) {
			return true
		}
	}
	return false
}

func withinSize(in *keepfileInput) bool {
	if !in.hasImage() {
		return true
	}
	return in.image.header.Size <= maxImageSize
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// parseKeepfileInput reads name, desc and image from a form or JSON body.
func parseKeepfileInput(c *gin.Context) (*keepfileInput, error) {
	in := &keepfileInput{nameIsStr: true, descIsStr: true}

	if c.ContentType() == binding.MIMEJSON {
		var body map[string]any
		// A malformed body is treated as empty input and fails validation.
		_ = c.ShouldBindJSON(&body)
		readJSONInput(in, body)
		return in, nil
	}

	if name, ok := c.GetPostForm("name"); ok {
		in.name = strings.TrimSpace(name)
	}
	if desc, ok := c.GetPostForm("desc"); ok {
		in.descSet = true
		in.desc = nullable(desc)
	}

	fh, err := c.FormFile("image")
	if err == nil {
		upload, err := sniffImage(fh)
		if err != nil {
			return nil, err
		}
		in.image = upload
	} else if raw, ok := c.GetPostForm("image"); ok && strings.TrimSpace(raw) != "" {
		in.imageNotFile = true
	}

	return in, nil
}

func readJSONInput(in *keepfileInput, body map[string]any) {
	switch v := body["name"].(type) {
	case nil:
	case string:
		in.name = strings.TrimSpace(v)
	default:
		in.name = fmt.Sprint(v)
		in.nameIsStr = false
	}

	if raw, ok := body["desc"]; ok {
		in.descSet = true
		switch v := raw.(type) {
		case nil:
		case string:
			in.desc = nullable(v)
		default:
			in.descIsStr = false
		}
	}

	if raw, ok := body["image"]; ok && raw != nil && raw != "" {
		in.imageNotFile = true
	}
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func sniffImage(fh *multipart.FileHeader) (*imageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open image upload: %w", err)
	}
	defer f.Close()

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect image type: %w", err)
	}
	return &imageUpload{header: fh, mime: mime}, nil
}
