package marshal

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Type tags.
const (
	tagNil         = '0'
	tagTrue        = 'T'
	tagFalse       = 'F'
	tagFixnum      = 'i'
	tagFloat       = 'f'
	tagBignum      = 'l'
	tagString      = '"'
	tagSymbol      = ':'
	tagSymlink     = ';'
	tagLink        = '@'
	tagIvar        = 'I'
	tagArray       = '['
	tagHash        = '{'
	tagHashDefault = '}'
)

type decoder struct {
	data    []byte
	pos     int
	symbols []Symbol
	objects []any
}

func (d *decoder) fail(err error) error {
	return &SyntaxError{Offset: d.pos, Err: err}
}

func (d *decoder) header() error {
	b, err := d.bytes(2)
	if err != nil {
		return err
	}
	if b[0] != majorVersion || b[1] > minorVersion {
		return fmt.Errorf("%w: %d.%d", ErrVersion, b[0], b[1])
	}

	return nil
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, ErrTruncated
	}
	b := d.data[d.pos]
	d.pos++

	return b, nil
}

func (d *decoder) bytes(n int) ([]byte, error) {
	if n < 0 || n > len(d.data)-d.pos {
		return nil, ErrTruncated
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n

	return b, nil
}

// long reads the variable-length integer used for fixnums and lengths.
func (d *decoder) long() (int64, error) {
	b, err := d.byte()
	if err != nil {
		return 0, err
	}

	c := int8(b)
	switch {
	case c == 0:
		return 0, nil
	case c > 4:
		return int64(c) - 5, nil
	case c < -4:
		return int64(c) + 5, nil
	case c > 0:
		raw, err := d.bytes(int(c))
		if err != nil {
			return 0, err
		}
		var x int64
		for i, v := range raw {
			x |= int64(v) << (8 * i)
		}
		return x, nil
	default:
		n := int(-c)
		raw, err := d.bytes(n)
		if err != nil {
			return 0, err
		}
		var x int64
		for i, v := range raw {
			x |= int64(v) << (8 * i)
		}
		return x - (int64(1) << (8 * n)), nil
	}
}

// length reads a non-negative count that cannot exceed the remaining input
// when each counted item takes at least minItem bytes.
func (d *decoder) length(minItem int) (int, error) {
	n, err := d.long()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrMalformed, n)
	}
	if n*int64(minItem) > int64(len(d.data)-d.pos) {
		return 0, fmt.Errorf("%w: length %d exceeds input", ErrTruncated, n)
	}

	return int(n), nil
}

func (d *decoder) register(v any) int {
	d.objects = append(d.objects, v)
	return len(d.objects) - 1
}

func (d *decoder) value(depth int) (any, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}

	tag, err := d.byte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagNil:
		return nil, nil

	case tagTrue:
		return true, nil

	case tagFalse:
		return false, nil

	case tagFixnum:
		return d.long()

	case tagSymbol:
		return d.symbol()

	case tagSymlink:
		idx, err := d.long()
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= int64(len(d.symbols)) {
			return nil, fmt.Errorf("%w: symlink %d out of range", ErrMalformed, idx)
		}
		return d.symbols[idx], nil

	case tagLink:
		idx, err := d.long()
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= int64(len(d.objects)) {
			return nil, fmt.Errorf("%w: object link %d out of range", ErrMalformed, idx)
		}
		return d.objects[idx], nil

	case tagString:
		s, err := d.rawString()
		if err != nil {
			return nil, err
		}
		d.register(s)
		return s, nil

	case tagFloat:
		return d.float()

	case tagBignum:
		return d.bignum()

	case tagIvar:
		return d.ivar(depth)

	case tagArray:
		return d.array(depth)

	case tagHash, tagHashDefault:
		return d.hash(depth, tag == tagHashDefault)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, tag)
	}
}

func (d *decoder) rawString() (string, error) {
	n, err := d.length(1)
	if err != nil {
		return "", err
	}
	b, err := d.bytes(n)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func (d *decoder) symbol() (Symbol, error) {
	s, err := d.rawString()
	if err != nil {
		return "", err
	}
	sym := Symbol(s)
	d.symbols = append(d.symbols, sym)

	return sym, nil
}

// symbolOrLink reads a symbol in a position where only symbols are allowed.
func (d *decoder) symbolOrLink() (Symbol, error) {
	tag, err := d.byte()
	if err != nil {
		return "", err
	}

	switch tag {
	case tagSymbol:
		return d.symbol()
	case tagSymlink:
		idx, err := d.long()
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= int64(len(d.symbols)) {
			return "", fmt.Errorf("%w: symlink %d out of range", ErrMalformed, idx)
		}
		return d.symbols[idx], nil
	default:
		return "", fmt.Errorf("%w: expected symbol, got %q", ErrMalformed, tag)
	}
}

func (d *decoder) float() (float64, error) {
	s, err := d.rawString()
	if err != nil {
		return 0, err
	}

	var f float64
	switch s {
	case "nan":
		f = math.NaN()
	case "inf":
		f = math.Inf(1)
	case "-inf":
		f = math.Inf(-1)
	default:
		// Older writers append mantissa bytes after a NUL.
		if i := strings.IndexByte(s, 0); i >= 0 {
			s = s[:i]
		}
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: float %q", ErrMalformed, s)
		}
	}
	d.register(f)

	return f, nil
}

func (d *decoder) bignum() (*big.Int, error) {
	sign, err := d.byte()
	if err != nil {
		return nil, err
	}
	if sign != '+' && sign != '-' {
		return nil, fmt.Errorf("%w: bignum sign %q", ErrMalformed, sign)
	}

	words, err := d.length(2)
	if err != nil {
		return nil, err
	}
	raw, err := d.bytes(words * 2)
	if err != nil {
		return nil, err
	}

	be := make([]byte, len(raw))
	for i, b := range raw {
		be[len(raw)-1-i] = b
	}
	n := new(big.Int).SetBytes(be)
	if sign == '-' {
		n.Neg(n)
	}
	d.register(n)

	return n, nil
}

// ivar reads a value followed by its instance variables. The variables only
// carry string encodings here, so they are parsed and dropped.
func (d *decoder) ivar(depth int) (any, error) {
	v, err := d.value(depth + 1)
	if err != nil {
		return nil, err
	}

	n, err := d.length(2)
	if err != nil {
		return nil, err
	}
	for range n {
		if _, err := d.symbolOrLink(); err != nil {
			return nil, err
		}
		if _, err := d.value(depth + 1); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func (d *decoder) array(depth int) ([]any, error) {
	n, err := d.length(1)
	if err != nil {
		return nil, err
	}

	arr := make([]any, n)
	d.register(arr)

	for i := range n {
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		arr[i] = v
	}

	return arr, nil
}

func (d *decoder) hash(depth int, withDefault bool) (map[string]any, error) {
	n, err := d.length(2)
	if err != nil {
		return nil, err
	}

	m := make(map[string]any, n)
	d.register(m)

	for range n {
		k, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		key, ok := AsString(k)
		if !ok {
			return nil, fmt.Errorf("%w: hash key of type %T", ErrUnsupportedType, k)
		}

		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		m[key] = v
	}

	if withDefault {
		if _, err := d.value(depth + 1); err != nil {
			return nil, err
		}
	}

	return m, nil
}
