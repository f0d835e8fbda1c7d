package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"meetly/pkg/logger"
	"meetly/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ScheduleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewScheduleValidator(log *logger.Logger) *ScheduleValidator {
	v := validator.New()

	if err := v.RegisterValidation("valid_time", ValidateClockTime); err != nil {
		log.Fatal("Failed to register 'valid_time' validator", "error", err)
	}
	if err := v.RegisterValidation("valid_date", ValidateDate); err != nil {
		log.Fatal("Failed to register 'valid_date' validator", "error", err)
	}
	if err := v.RegisterValidation("valid_weekday", ValidateWeekday); err != nil {
		log.Fatal("Failed to register 'valid_weekday' validator", "error", err)
	}

	log.Info("Schedule validator initialized successfully")

	return &ScheduleValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateClockTime accepts "HH:MM" and "HH:MM:SS" wall-clock values.
// "24:00" is allowed so a window can extend to midnight.
func ValidateClockTime(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	if value == "24:00" || value == "24:00:00" {
		return true
	}

	if _, err := time.Parse("15:04", value); err == nil {
		return true
	}
	_, err := time.Parse("15:04:05", value)
	return err == nil
}

// ValidateDate accepts calendar dates in "YYYY-MM-DD" form.
func ValidateDate(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}

	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

// ValidateWeekday accepts full weekday names, case-insensitive.
func ValidateWeekday(fl validator.FieldLevel) bool {
	validDays := map[string]struct{}{
		"sunday": {}, "monday": {}, "tuesday": {}, "wednesday": {},
		"thursday": {}, "friday": {}, "saturday": {},
	}

	_, valid := validDays[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
	return valid
}

func (v *ScheduleValidator) Validate(sc *model.Schedule) error {
	if err := v.validate.Struct(sc); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateWindows(sc)
}

// validateWindows enforces ordering the struct tags cannot express.
// Weekly windows must have positive length. Override windows may be
// degenerate (start == end); the availability resolver interprets
// those as "use the weekly pattern for this date".
func (v *ScheduleValidator) validateWindows(sc *model.Schedule) error {
	var errs ValidationErrors

	for i, w := range sc.Weekly {
		if w.Start >= w.End {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("weekly[%d]", i),
				Message: fmt.Sprintf("window start %q must be before end %q", w.Start, w.End),
			})
		}
	}

	for i, o := range sc.Overrides {
		for j, w := range o.Windows {
			if w.Start > w.End {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("overrides[%d].windows[%d]", i, j),
					Message: fmt.Sprintf("window start %q must not be after end %q", w.Start, w.End),
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *ScheduleValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "valid_time":
			message = fmt.Sprintf("%s must be a wall-clock time in HH:MM 24-hour format", err.Field())
		case "valid_date":
			message = fmt.Sprintf("%s must be a calendar date in YYYY-MM-DD format", err.Field())
		case "valid_weekday":
			message = fmt.Sprintf("%s must be a full weekday name (Sunday-Saturday)", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA time zone identifier", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
