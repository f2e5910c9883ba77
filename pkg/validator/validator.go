package validator

import (
	"log"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	countryCodeTag = "countrycode"
	cacheTagTag    = "cachetag"
)

var (
	countryCodePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)
	cacheTagPattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9_.:-]{0,127}$`)
)

// New returns a validator with the custom rules registered and json names in error fields.
func New() *validator.Validate {
	v := validator.New()
	register(v)
	return v
}

func RegisterGinValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		register(v)
	}
}

func register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation(countryCodeTag, countryCodeValidator); err != nil {
		log.Fatal("register countrycode validator failed")
	}
	if err := v.RegisterValidation(cacheTagTag, cacheTagValidator); err != nil {
		log.Fatal("register cachetag validator failed")
	}
}

// countryCodeValidator accepts ISO 3166-1 alpha-2 codes in either case.
var countryCodeValidator validator.Func = func(fl validator.FieldLevel) bool {
	return countryCodePattern.MatchString(fl.Field().String())
}

var cacheTagValidator validator.Func = func(fl validator.FieldLevel) bool {
	return cacheTagPattern.MatchString(fl.Field().String())
}
