// Package props decodes the free-form handler props of a declaration into a
// driver's typed configuration.
package props

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Defaulter is implemented by driver configs that fill in unset fields.
type Defaulter interface {
	ApplyDefaults()
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("mapstructure"); name != "" && name != "-" {
				return name
			}
			return f.Name
		})
	})
	return validate
}

// Decode decodes in into out (a pointer to a struct with mapstructure tags),
// applies defaults when out implements Defaulter, then validates out using
// its validate tags. Durations may be given as strings ("5s") or numbers, and
// fields implementing encoding.TextUnmarshaler are decoded from strings.
func Decode(in map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create props decoder: %w", err)
	}
	if err := decoder.Decode(in); err != nil {
		return fmt.Errorf("invalid props: %w", err)
	}

	if d, ok := out.(Defaulter); ok {
		d.ApplyDefaults()
	}

	if err := validatorInstance().Struct(out); err != nil {
		return fmt.Errorf("invalid props: %w", err)
	}
	return nil
}
