package router

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// IINs and BINs are always exactly twelve digits.
var iinBinPattern = regexp.MustCompile(`^[0-9]{12}$`)

var validationOnce sync.Once

// registerValidations installs domain validation tags on gin's binding
// engine so request structs can use them directly.
func registerValidations() {
	validationOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("iin_bin", func(fl validator.FieldLevel) bool {
			return iinBinPattern.MatchString(fl.Field().String())
		})
	})
}
