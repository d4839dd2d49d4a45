package typeinfo

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var cacheMutex sync.RWMutex
var cache = make(map[reflect.Type]*Info)

// GetTypeInfo returns the Info for a given struct value, generating and
// caching it as required.
func GetTypeInfo(value any) (*Info, error) {
	if value == (any)(nil) {
		return &Info{}, errors.New("cannot reflect nil value")
	}

	v := reflect.Indirect(reflect.ValueOf(value))

	cacheMutex.RLock()
	info, found := cache[v.Type()]
	cacheMutex.RUnlock()
	if found {
		return info, nil
	}

	info, err := generate(v)
	if err != nil {
		return &Info{}, err
	}

	cacheMutex.Lock()
	cache[v.Type()] = info
	cacheMutex.Unlock()

	return info, nil
}

// generate produces reflection information for the given struct value,
// built from its "db" struct tags.
func generate(value reflect.Value) (*Info, error) {
	value = reflect.Indirect(value)
	if value.Kind() != reflect.Struct {
		return &Info{}, errors.Errorf("can only reflect struct type, got %s", value.Kind())
	}

	info := Info{
		TagToField: make(map[string]Field),
		FieldToTag: make(map[string]string),
		Type:       value.Type(),
	}

	typ := value.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("db")
		if tag == "" {
			continue
		}
		tag, omitEmpty, err := parseTag(tag)
		if err != nil {
			return &Info{}, errors.Wrapf(err, "field %q", field.Name)
		}
		info.TagToField[tag] = Field{
			Name:      field.Name,
			Index:     i,
			OmitEmpty: omitEmpty,
			Type:      field.Type,
		}
		info.FieldToTag[field.Name] = tag
	}

	return &info, nil
}

var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// parseTag parses the input tag string and returns its name and whether it
// carries the "omitempty" option.
func parseTag(tag string) (string, bool, error) {
	options := strings.Split(tag, ",")

	var omitEmpty bool
	if len(options) > 2 {
		return "", false, errors.New("too many options in 'db' tag")
	}
	if len(options) == 2 {
		if strings.ToLower(options[1]) != "omitempty" {
			return "", false, errors.Errorf("unexpected tag value %q", options[1])
		}
		omitEmpty = true
	}

	name := options[0]
	if len(name) == 0 {
		return "", false, errors.New("empty db tag")
	}
	if !validColNameRx.MatchString(name) {
		return "", false, errors.New("invalid column name in 'db' tag")
	}

	return name, omitEmpty, nil
}
