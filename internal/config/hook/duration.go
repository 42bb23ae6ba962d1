package hook

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
)

func Duration() mapstructure.DecodeHookFuncType {
	return func(in reflect.Type, out reflect.Type, val interface{}) (interface{}, error) {
		if in.Kind() == reflect.String && out == durationType {
			return time.ParseDuration(val.(string))
		}
		return val, nil
	}
}
