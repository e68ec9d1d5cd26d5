package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/adamwoolhether/gems/config"
)

const (
	// ContentTypeForm is sent with encoded Params on POST and PUT.
	ContentTypeForm = "application/x-www-form-urlencoded"
	// ContentTypeOctetStream is the content type for gem uploads.
	ContentTypeOctetStream = "application/octet-stream"

	// dateLayout renders time.Time params as ISO dates.
	dateLayout = "2006-01-02"
)

// Param is one named request parameter.
//
// Value may be a string, []string (sent as a single comma-joined value),
// any integer or bool, a time.Time (sent as an ISO date), or a
// fmt.Stringer. Params whose Value is nil, including a nil pointer or
// slice, are omitted.
type Param struct {
	Key   string
	Value any
}

// Params are encoded in the order given.
type Params []Param

// Add returns p with key=value appended.
func (p Params) Add(key string, value any) Params {
	return append(p, Param{Key: key, Value: value})
}

// Encode renders p as key=value pairs joined by '&', keys in the order
// supplied and both sides percent-encoded. Commas in values stay literal.
func (p Params) Encode() (string, error) {
	var sb strings.Builder
	for _, param := range p {
		if isNil(param.Value) {
			continue
		}

		v, err := formatValue(param.Value)
		if err != nil {
			return "", &ConfigError{Field: param.Key, Err: err}
		}

		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(param.Key))
		sb.WriteByte('=')
		sb.WriteString(escapeValue(v))
	}

	return sb.String(), nil
}

// escapeValue percent-encodes v but keeps commas literal, so joined lists
// read as name,name on the wire.
func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "%2C", ",")
}

// isNil reports whether v is nil or holds a nil pointer, map, slice, func
// or channel. A typed nil Stringer would panic in String.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

var ErrUnsupportedParam = errors.New("unsupported parameter type")

func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []string:
		return strings.Join(val, ","), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case time.Time:
		return val.Format(dateLayout), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedParam, v)
	}
}

// Call describes one API operation.
type Call struct {
	// Method defaults to GET.
	Method string

	// Path is joined to the configured host and base path.
	Path string

	// SkipBasePath joins Path directly to the host, for resources served
	// outside the API root such as gem archives.
	SkipBasePath bool

	// Params go in the query string for GET, HEAD and DELETE, and in a
	// form-encoded body otherwise. They are ignored when Body is set.
	Params Params

	// Body is sent verbatim with ContentType.
	Body        []byte
	ContentType string

	// Format selects the decoder for a successful response.
	Format Format
}

func (c Call) method() string {
	if c.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(c.Method)
}

func paramsInQuery(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	}
	return false
}

// NewRequest builds the outgoing request for call from cfg. It performs
// no I/O and never modifies cfg.
func NewRequest(ctx context.Context, cfg config.Config, call Call) (*http.Request, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}

	base, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, &ConfigError{Field: "host", Err: err}
	}

	endpoint := *base
	endpoint.RawQuery = ""
	endpoint.Fragment = ""
	if call.SkipBasePath {
		endpoint.Path = joinURLPath(base.Path, call.Path)
	} else {
		endpoint.Path = joinURLPath(joinURLPath(base.Path, cfg.BasePath), call.Path)
	}

	method := call.method()

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case call.Body != nil:
		if call.ContentType == "" {
			return nil, &ConfigError{Field: "content_type", Err: errors.New("required with a raw body")}
		}
		body = bytes.NewReader(call.Body)
		contentType = call.ContentType

	case paramsInQuery(method):
		query, err := call.Params.Encode()
		if err != nil {
			return nil, err
		}
		endpoint.RawQuery = query

	default:
		form, err := call.Params.Encode()
		if err != nil {
			return nil, err
		}
		if form != "" {
			body = strings.NewReader(form)
			contentType = ContentTypeForm
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("instantiating request: %w", err)}
	}

	req.Header.Set("User-Agent", cfg.Agent())
	req.Header.Set("Accept", call.Format.accept())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	switch {
	case cfg.Key != "":
		req.Header.Set("Authorization", cfg.Key)
	case cfg.HasBasicAuth():
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}

	return req, nil
}

// joinURLPath appends resourcePath to urlPath with exactly one slash
// between them.
func joinURLPath(urlPath, resourcePath string) string {
	if resourcePath == "" {
		if urlPath == "" {
			return "/"
		}
		return urlPath
	}
	if !strings.HasSuffix(urlPath, "/") {
		urlPath += "/"
	}
	resourcePath = strings.TrimPrefix(resourcePath, "/")
	return urlPath + resourcePath
}
