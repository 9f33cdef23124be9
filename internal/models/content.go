package models

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Content is implemented by every managed content type through a pointer.
type Content interface {
	ResourceName() string
	AssetField() string
	AssetFolder() string
	AssetRequired() bool
	Asset() *ManagedAsset
	GetRecord() *Record
}

// Slugged content derives a URL slug from its title when none is given.
type Slugged interface {
	EnsureSlug()
	SlugValue() string
}

// GetRecord exposes the shared columns to generic code.
func (r *Record) GetRecord() *Record { return r }

// VersionField is the request key carrying the optimistic concurrency token.
const VersionField = "version"

// Fields holds only the keys a client actually supplied. Absent keys leave
// the stored value untouched on update.
type Fields map[string]any

func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Version returns the client's expected version, if one was supplied.
func (f Fields) Version() (int, bool, error) {
	raw, ok := f[VersionField]
	if !ok || raw == nil || raw == "" {
		return 0, false, nil
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// Apply copies supplied fields onto dst by their form tag. Fields without a
// form tag (ids, timestamps, version, assets) cannot be set this way. The
// returned map holds per-field conversion failures.
func Apply(dst Content, fields Fields) map[string]string {
	problems := map[string]string{}
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		problems["_"] = "content must be a struct pointer"
		return problems
	}
	applyStruct(v.Elem(), fields, problems)
	return problems
}

func applyStruct(v reflect.Value, fields Fields, problems map[string]string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			applyStruct(fv, fields, problems)
			continue
		}
		name := sf.Tag.Get("form")
		if name == "" || name == "-" || !fv.CanSet() {
			continue
		}
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if err := setValue(fv, raw); err != nil {
			problems[name] = fmt.Sprintf("%s is invalid", name)
		}
	}
}

var timeType = reflect.TypeOf(time.Time{})

func setValue(fv reflect.Value, raw any) error {
	if fv.Kind() == reflect.Ptr {
		if raw == nil || raw == "" {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		elem := reflect.New(fv.Type().Elem())
		if err := setValue(elem.Elem(), raw); err != nil {
			return err
		}
		fv.Set(elem)
		return nil
	}

	if fv.Type() == timeType {
		ts, err := cast.ToTimeE(raw)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(ts))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return err
		}
		fv.SetString(strings.TrimSpace(s))
	case reflect.Bool:
		b, err := toBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

// toBool also accepts the values HTML checkboxes send.
func toBool(raw any) (bool, error) {
	if s, ok := raw.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "on", "yes":
			return true, nil
		case "off", "no", "":
			return false, nil
		}
	}
	return cast.ToBoolE(raw)
}
