package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// validate re-checks the same `binding` tags gin enforces at the HTTP edge,
// so direct callers of the services get identical input rules.
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

func validateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
		}
		return validationErrorf("%s", strings.Join(msgs, "; "))
	}
	return validationErrorf("%s", err.Error())
}

func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, validationErrorf("invalid %s: %v", field, err)
	}
	return id, nil
}

// parseActor returns nil for an empty or malformed actor id; audit rows then record no user.
func parseActor(userID string) *uuid.UUID {
	if userID == "" {
		return nil
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, validationErrorf("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}
