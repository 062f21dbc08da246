package validation

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yungbote/parla-backend/internal/platform/validate"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterBinding installs the domain validation tags on gin's binding engine
// so `binding:"cefr"` and friends work in request structs. Safe to call more
// than once.
func RegisterBinding() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
			return
		}
		registerErr = validate.Register(v)
	})
	return registerErr
}
