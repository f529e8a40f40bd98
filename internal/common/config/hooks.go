package config

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// StringParserHook decodes strings into T using parse, so values read from config files and flags are
// normalised and checked the same way. Other source or target types pass through untouched.
func StringParserHook[T any](parse func(string) (T, error)) mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf((*T)(nil)).Elem()
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != target {
			return data, nil
		}
		return parse(data.(string))
	}
}

// DecodeHook combines hooks with the ones viper applies by default.
func DecodeHook(hooks ...mapstructure.DecodeHookFunc) mapstructure.DecodeHookFunc {
	all := append([]mapstructure.DecodeHookFunc{
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	}, hooks...)
	return mapstructure.ComposeDecodeHookFunc(all...)
}
