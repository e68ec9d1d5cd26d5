package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/adamwoolhether/gems/client/marshal"
	"github.com/adamwoolhether/gems/config"
)

// Format is the representation a caller expects a successful body in.
// It is chosen per call and never inferred from response headers.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatMarshal
	FormatRaw
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatMarshal:
		return "marshal"
	case FormatRaw:
		return "raw"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// accept is the Accept header sent for f.
func (f Format) accept() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/x-yaml"
	case FormatMarshal:
		return "application/octet-stream"
	default:
		return "*/*"
	}
}

// PreferredFormat maps the configured preference onto a decode format.
func PreferredFormat(cfg config.Config) Format {
	if cfg.PreferredFormat() == config.FormatYAML {
		return FormatYAML
	}
	return FormatJSON
}

var (
	ErrEmptyBody          = errors.New("empty body")
	ErrTrailingData       = errors.New("trailing data after document")
	ErrInvalidDestination = errors.New("invalid decode destination")
)

// Decode decodes body as f into dest. dest is left untouched unless the
// whole body decodes.
//
// Accepted destinations:
//   - FormatJSON, FormatYAML: any non-nil pointer
//   - FormatRaw: *string or *[]byte
//   - FormatMarshal: *any or a [marshal.Unmarshaler]
func Decode(body []byte, f Format, dest any) error {
	return decode(body, f, dest, false)
}

func decode(body []byte, f Format, dest any, useJSONNum bool) error {
	if dest == nil {
		return nil
	}

	var err error
	switch f {
	case FormatJSON:
		err = atomically(dest, func(tmp any) error {
			return decodeJSON(body, tmp, useJSONNum)
		})
	case FormatYAML:
		err = atomically(dest, func(tmp any) error {
			return decodeYAML(body, tmp)
		})
	case FormatMarshal:
		err = decodeMarshal(body, dest)
	case FormatRaw:
		err = decodeRaw(body, dest)
	default:
		err = fmt.Errorf("unknown format %d", int(f))
	}

	if err != nil {
		return &DecodeError{Format: f, Err: err}
	}

	return nil
}

// atomically decodes into a fresh value of dest's element type and only
// copies it into dest on success.
func atomically(dest any, fn func(tmp any) error) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: %T", ErrInvalidDestination, dest)
	}

	tmp := reflect.New(rv.Elem().Type())
	if err := fn(tmp.Interface()); err != nil {
		return err
	}
	rv.Elem().Set(tmp.Elem())

	return nil
}

func decodeJSON(body []byte, v any, useJSONNum bool) error {
	d := json.NewDecoder(bytes.NewReader(body))
	if useJSONNum {
		d.UseNumber()
	}

	if err := d.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}

	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}

	return nil
}

func decodeYAML(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}

	return yaml.Unmarshal(body, v)
}

func decodeMarshal(body []byte, dest any) error {
	switch d := dest.(type) {
	case marshal.Unmarshaler:
		return marshal.UnmarshalTo(body, d)
	case *any:
		v, err := marshal.Unmarshal(body)
		if err != nil {
			return err
		}
		*d = v
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrInvalidDestination, dest)
	}
}

func decodeRaw(body []byte, dest any) error {
	switch d := dest.(type) {
	case *string:
		*d = string(body)
	case *[]byte:
		*d = bytes.Clone(body)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidDestination, dest)
	}

	return nil
}
