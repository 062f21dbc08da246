package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/parla-backend/internal/domain/practice"
	"github.com/yungbote/parla-backend/internal/domain/user"
)

// Destinations the realtime agent may navigate to.
var Destinations = []string{"/home", "/profile", "/free_conversation"}

var (
	defaultOnce sync.Once
	defaultV    *validator.Validate
)

// Default returns a process-wide validator with the custom tags registered.
func Default() *validator.Validate {
	defaultOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		if err := Register(v); err != nil {
			panic(err)
		}
		defaultV = v
	})
	return defaultV
}

// Register installs the domain tags on v. Gin's binding engine gets the same
// tags through this call.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	tags := map[string]validator.Func{
		"cefr":            oneOf(user.CEFRLevels...),
		"errtype":         func(fl validator.FieldLevel) bool { return practice.ValidErrorType(fl.Field().String()) },
		"tstatus":         func(fl validator.FieldLevel) bool { return practice.ValidTargetStatus(fl.Field().String()) },
		"correction_mode": oneOf(user.CorrectionImmediate, user.CorrectionDeferred, user.CorrectionOff),
		"destination":     oneOf(Destinations...),
		"role":            oneOf(practice.RoleUser, practice.RoleAssistant),
		"notblank":        func(fl validator.FieldLevel) bool { return strings.TrimSpace(fl.Field().String()) != "" },
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func oneOf(allowed ...string) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

// Struct validates s with the default validator.
func Struct(s any) error {
	return Default().Struct(s)
}

// Describe flattens validator errors into a short client-facing string such
// as "phrase: required; cefr: cefr".
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", lowerFirst(field), rule))
	}
	return strings.Join(parts, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
