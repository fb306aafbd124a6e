package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var driveFolderPattern = regexp.MustCompile(`^https://drive\.google\.com/(drive/folders/|folders/)[a-zA-Z0-9-_]+$`)

// IsDriveFolderURL reports whether s is a Google Drive folder link.
func IsDriveFolderURL(s string) bool {
	return driveFolderPattern.MatchString(s)
}

// Register adds the custom tags used by request DTOs.
func Register(v *validator.Validate) error {
	return v.RegisterValidation("gdrive_folder", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsDriveFolderURL(s)
	})
}

// RegisterGin installs the custom tags on gin's binding validator.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

func FormatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte", "lte":
		if strings.Contains(fe.Field(), "[") {
			return fmt.Sprintf("%s must be between 0 and 1", metricKey(fe.Field()))
		}
		return fmt.Sprintf("%s is out of range", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gdrive_folder":
		return fmt.Sprintf("%s must be a Google Drive folder URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// metricKey turns "Metrics[accuracy]" into "accuracy".
func metricKey(field string) string {
	start := strings.Index(field, "[")
	end := strings.LastIndex(field, "]")
	if start < 0 || end <= start {
		return field
	}
	return field[start+1 : end]
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Username":         "Username",
		"Password":         "Password",
		"ModelName":        "Model name",
		"ModelDescription": "Model description",
		"ClientID":         "Client ID",
		"ClientSecret":     "Client secret",
		"RefreshToken":     "Refresh token",
		"ContributionsURL": "Contributions folder",
		"ModelsURL":        "Models folder",
		"CommentText":      "Comment",
		"RoleID":           "Role",
		"PointsEarned":     "Points",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
