package provider

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeSettings decodes a factory settings map into T using its
// mapstructure tags. Durations may be given as strings such as "90s".
func DecodeSettings[T any](settings map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(settings); err != nil {
		return out, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}
