package handlers

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yungbote/derivedconcept-backend/internal/domain/concepts"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("gin validator engine is %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("conceptpath", validateConceptPath)
	})
	return err
}

func validateConceptPath(fl validator.FieldLevel) bool {
	_, err := concepts.ParsePath(fl.Field().String())
	return err == nil
}
