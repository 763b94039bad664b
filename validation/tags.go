// Package validation checks and encodes endpoint parameter structs.
//
// Parameter structs describe their wire shape with struct tags:
//
//	type ConsultaSQLParams struct {
//		SQL              string `param:"sql" validate:"required"`
//		Cidade           string `query:"cidade" validate:"required,cidade"`
//		IncluirHistorico bool   `query:"incluir_historico"`
//	}
//
// param fields fill {placeholders} of the path, query fields become query
// parameters in declaration order, and json fields form the request body.
// validate tags are enforced by Validator before anything is sent.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/iptuapi/iptuapi-go/httpclient"
)

// Parameter locations
const (
	ParamPath  = "path"
	ParamQuery = "query"
	ParamBody  = "body"
)

const trueValue = "true"

// TagInfo is the parsed tag metadata of one exported struct field
type TagInfo struct {
	Name        string            // Go field name
	Index       int               // field index in the struct
	ParamType   string            // path, query or body
	ParamName   string            // wire name
	Required    bool              // validate:"required"
	Constraints map[string]string // validate tag, key to value ("true" for flags)
}

// Enum returns the values of a oneof constraint
func (t *TagInfo) Enum() ([]string, bool) {
	if enum, ok := t.Constraints["oneof"]; ok {
		values := strings.Fields(enum)
		if len(values) > 0 {
			return values, true
		}
	}
	return nil, false
}

var tagCache sync.Map // reflect.Type -> []TagInfo

// ParseTags extracts the tag metadata of a struct type. Results are cached per type.
func ParseTags(t reflect.Type) []TagInfo {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := tagCache.Load(t); ok {
		return cached.([]TagInfo)
	}

	tags := make([]TagInfo, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		info := TagInfo{
			Name:        field.Name,
			Index:       i,
			Constraints: make(map[string]string),
		}
		info.ParamType, info.ParamName = parseParameterInfo(field)
		if info.ParamName == "-" {
			continue
		}
		if validate := field.Tag.Get("validate"); validate != "" {
			parseValidateTag(validate, info.Constraints)
		}
		_, info.Required = info.Constraints["required"]

		tags = append(tags, info)
	}

	tagCache.Store(t, tags)
	return tags
}

// parseParameterInfo determines the parameter location and wire name
func parseParameterInfo(field reflect.StructField) (paramType, paramName string) {
	if param := field.Tag.Get("param"); param != "" {
		return ParamPath, param
	}
	if query := field.Tag.Get("query"); query != "" {
		return ParamQuery, query
	}
	if json := field.Tag.Get("json"); json != "" {
		name, _, _ := strings.Cut(json, ",")
		if name != "" {
			return ParamBody, name
		}
	}
	return ParamBody, field.Name
}

// parseValidateTag parses a validate tag into a constraint map
func parseValidateTag(validate string, constraints map[string]string) {
	for _, part := range strings.Split(validate, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			constraints[part] = trueValue
			continue
		}
		constraints[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
}

// EncodeQuery renders the query fields of params in declaration order.
// Zero values are omitted, so a bool flag is only sent when true.
func EncodeQuery(params any) (httpclient.Query, error) {
	v, err := structValue(params)
	if err != nil {
		return nil, err
	}

	var q httpclient.Query
	for _, info := range ParseTags(v.Type()) {
		if info.ParamType != ParamQuery {
			continue
		}
		s, ok := formatValue(v.Field(info.Index))
		if !ok {
			continue
		}
		q = append(q, httpclient.QueryParam{Key: info.ParamName, Value: s})
	}
	return q, nil
}

// ExpandPath replaces each {name} in pattern with the escaped value of the
// param field of that name. Every placeholder must resolve to a non-empty value.
func ExpandPath(pattern string, params any) (string, error) {
	v, err := structValue(params)
	if err != nil {
		return "", err
	}

	values := make(map[string]string)
	for _, info := range ParseTags(v.Type()) {
		if info.ParamType != ParamPath {
			continue
		}
		if s, ok := formatValue(v.Field(info.Index)); ok {
			values[info.ParamName] = s
		}
	}

	var b strings.Builder
	rest := pattern
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in path %q", pattern)
		}
		name := rest[start+1 : start+end]
		value, ok := values[name]
		if !ok {
			return "", fmt.Errorf("missing path parameter %q", name)
		}
		b.WriteString(rest[:start])
		b.WriteString(url.PathEscape(value))
		rest = rest[start+end+1:]
	}
}

// Digits strips every non-digit character, e.g. "01310-100" becomes "01310100".
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func structValue(params any) (reflect.Value, error) {
	v := reflect.ValueOf(params)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, errors.New("params must not be nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("params must be a struct, got %s", v.Kind())
	}
	return v, nil
}

// formatValue renders a scalar field. ok is false for zero values and nil pointers.
func formatValue(v reflect.Value) (string, bool) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	} else if v.IsZero() {
		return "", false
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), v.String() != ""
	case reflect.Bool:
		if !v.Bool() {
			return "", false
		}
		return trueValue, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, v.Type().Bits()), true
	default:
		return fmt.Sprint(v.Interface()), true
	}
}
