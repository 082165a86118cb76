package validation

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "ilgcli/internal/errors"
)

// MaxCategoryLength bounds the category filter, which ends up in filenames
const MaxCategoryLength = 128

// ExportRequest holds the positional arguments of one export invocation.
// Both fields are optional. The category is matched against vertical_id as
// given; it only has to be filename-safe when no output path is supplied,
// since it then becomes part of the default file name.
type ExportRequest struct {
	Category   string `arg:"category" validate:"omitempty,max=128"`
	OutputPath string `arg:"output_path" validate:"omitempty,max=4096,exportpath"`
}

// RequestValidator validates export requests using struct tags
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator with the export rules registered
func NewRequestValidator() *RequestValidator {
	v := validator.New()

	v.RegisterValidation("exportpath", isValidExportPath)
	v.RegisterStructValidation(validateDefaultFileName, ExportRequest{})

	// Report argument names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("arg")
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &RequestValidator{validate: v}
}

// Validate checks req and returns a VALIDATION error describing the first
// failing argument
func (r *RequestValidator) Validate(req ExportRequest) error {
	err := r.validate.Struct(req)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return apperrors.NewValidationError("invalid export request", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatValidationError(fe))
	}
	return apperrors.NewValidationError(strings.Join(messages, "; "), nil).
		WithContext("fields", len(fieldErrs))
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "category":
		return fmt.Sprintf("%s must not contain path separators or control characters when no output path is given", field)
	case "exportpath":
		return fmt.Sprintf("%s must name a file", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// validateDefaultFileName applies the filename rules to the category when
// it will be embedded in the default export file name
func validateDefaultFileName(sl validator.StructLevel) {
	req := sl.Current().Interface().(ExportRequest)
	if req.Category == "" || req.OutputPath != "" {
		return
	}
	if !isFilenameSafe(req.Category) {
		sl.ReportError(req.Category, "category", "Category", "category", "")
	}
}

// isFilenameSafe rejects values that would escape the exports directory
// once embedded in a filename
func isFilenameSafe(category string) bool {
	if strings.TrimSpace(category) == "" {
		return false
	}
	if strings.Contains(category, "..") || strings.ContainsAny(category, `/\`) {
		return false
	}
	for _, ch := range category {
		if unicode.IsControl(ch) {
			return false
		}
	}
	return true
}

// isValidExportPath requires a path that names a file, not a directory
func isValidExportPath(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if strings.TrimSpace(path) == "" {
		return false
	}
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, `\`) {
		return false
	}
	return !strings.ContainsRune(path, 0)
}
