// Package validation checks voiceid inputs and configuration.
//
// Struct tag validation uses go-playground/validator; field names in error
// messages come from mapstructure or json tags so they match the config keys
// a user wrote.
//
//	type Options struct {
//	    Threshold float64 `mapstructure:"threshold" validate:"gte=0,lte=2"`
//	}
//	err := validation.Validate(opts)
//
// Programmatic checks collect several field errors before failing:
//
//	v := validation.New()
//	v.Required("name", name).NonNegative("start", start)
//	if err := v.Validate(); err != nil { ... }
package validation
