package marshal

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// enc builds marshal fixtures the way the registry's writer lays them out.
type enc struct {
	b []byte
}

func newEnc() *enc {
	return &enc{b: []byte{majorVersion, minorVersion}}
}

func (e *enc) long(n int64) *enc {
	switch {
	case n == 0:
		e.b = append(e.b, 0)
		return e
	case n > 0 && n < 123:
		e.b = append(e.b, byte(n+5))
		return e
	case n < 0 && n > -124:
		e.b = append(e.b, byte(int8(n-5)))
		return e
	}

	var buf []byte
	x := n
	for i := 1; i <= 8; i++ {
		buf = append(buf, byte(x&0xff))
		x >>= 8
		if x == 0 {
			e.b = append(e.b, byte(i))
			break
		}
		if x == -1 {
			e.b = append(e.b, byte(int8(-i)))
			break
		}
	}
	e.b = append(e.b, buf...)
	return e
}

func (e *enc) raw(bs ...byte) *enc {
	e.b = append(e.b, bs...)
	return e
}

func (e *enc) fixnum(n int64) *enc {
	e.b = append(e.b, tagFixnum)
	return e.long(n)
}

func (e *enc) symbol(s string) *enc {
	e.b = append(e.b, tagSymbol)
	e.long(int64(len(s)))
	e.b = append(e.b, s...)
	return e
}

func (e *enc) symlink(idx int64) *enc {
	e.b = append(e.b, tagSymlink)
	return e.long(idx)
}

// utf8String writes a string tagged with the UTF-8 encoding ivar. The first
// call introduces the :E symbol; later calls link to symbol index eIdx.
func (e *enc) utf8String(s string, eIdx int64) *enc {
	e.b = append(e.b, tagIvar, tagString)
	e.long(int64(len(s)))
	e.b = append(e.b, s...)
	e.long(1)
	if eIdx < 0 {
		e.symbol("E")
	} else {
		e.symlink(eIdx)
	}
	e.b = append(e.b, tagTrue)
	return e
}

func (e *enc) array(n int64) *enc {
	e.b = append(e.b, tagArray)
	return e.long(n)
}

func (e *enc) hash(n int64) *enc {
	e.b = append(e.b, tagHash)
	return e.long(n)
}

func TestUnmarshal_Scalars(t *testing.T) {
	testCases := map[string]struct {
		data []byte
		exp  any
	}{
		"nil":           {data: newEnc().raw(tagNil).b, exp: nil},
		"true":          {data: newEnc().raw(tagTrue).b, exp: true},
		"false":         {data: newEnc().raw(tagFalse).b, exp: false},
		"zero":          {data: newEnc().fixnum(0).b, exp: int64(0)},
		"smallPos":      {data: newEnc().fixnum(1).b, exp: int64(1)},
		"smallNeg":      {data: newEnc().fixnum(-1).b, exp: int64(-1)},
		"twoBytes":      {data: newEnc().fixnum(300).b, exp: int64(300)},
		"twoBytesNeg":   {data: newEnc().fixnum(-300).b, exp: int64(-300)},
		"fourBytes":     {data: newEnc().fixnum(1 << 30).b, exp: int64(1 << 30)},
		"boundary122":   {data: newEnc().fixnum(122).b, exp: int64(122)},
		"boundary123":   {data: newEnc().fixnum(123).b, exp: int64(123)},
		"boundaryNeg":   {data: newEnc().fixnum(-124).b, exp: int64(-124)},
		"symbol":        {data: newEnc().symbol("name").b, exp: Symbol("name")},
		"plainString":   {data: newEnc().raw(tagString, 0x0a, 'r', 'a', 'i', 'l', 's').b, exp: "rails"},
		"utf8String":    {data: newEnc().utf8String("thor", -1).b, exp: "thor"},
		"float":         {data: newEnc().raw(tagFloat, 0x08, '1', '.', '5').b, exp: 1.5},
		"floatMantissa": {data: newEnc().raw(tagFloat, 0x0a, '2', '.', '5', 0, 0xff).b, exp: 2.5},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := Unmarshal(tc.data)
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshal_KnownBytes(t *testing.T) {
	// [1, -1, 300, nil, true]
	data := []byte{0x04, 0x08, 0x5b, 0x0a, 0x69, 0x06, 0x69, 0xfa, 0x69, 0x02, 0x2c, 0x01, 0x30, 0x54}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	exp := []any{int64(1), int64(-1), int64(300), nil, true}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshal_SpecialFloats(t *testing.T) {
	for _, s := range []string{"nan", "inf", "-inf"} {
		e := newEnc().raw(tagFloat).long(int64(len(s))).raw([]byte(s)...)
		got, err := Unmarshal(e.b)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}

		f, ok := got.(float64)
		if !ok {
			t.Fatalf("%s: expected float64, got %T", s, got)
		}

		switch s {
		case "nan":
			if !math.IsNaN(f) {
				t.Errorf("expected NaN, got %v", f)
			}
		case "inf":
			if !math.IsInf(f, 1) {
				t.Errorf("expected +Inf, got %v", f)
			}
		case "-inf":
			if !math.IsInf(f, -1) {
				t.Errorf("expected -Inf, got %v", f)
			}
		}
	}
}

func TestUnmarshal_Bignum(t *testing.T) {
	// 2**64 is 1 followed by eight zero bytes, padded to five 16-bit words.
	data := newEnc().raw(tagBignum, '-').long(5).raw(0, 0, 0, 0, 0, 0, 0, 0, 1, 0).b

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	n, ok := got.(*big.Int)
	if !ok {
		t.Fatalf("expected *big.Int, got %T", got)
	}

	exp := new(big.Int).Lsh(big.NewInt(1), 64)
	exp.Neg(exp)
	if n.Cmp(exp) != 0 {
		t.Errorf("expected %s, got %s", exp, n)
	}
}

func TestUnmarshal_DependencyShape(t *testing.T) {
	// [{name: "rails", number: "7.0.0", platform: "ruby", dependencies: [["thor", ">= 0"]]}]
	// Symbols table: name=0 E=1 number=2 platform=3 dependencies=4.
	e := newEnc().array(1).hash(4)
	e.symbol("name").utf8String("rails", -1)
	e.symbol("number").utf8String("7.0.0", 1)
	e.symbol("platform").utf8String("ruby", 1)
	e.symbol("dependencies").array(1).array(2).utf8String("thor", 1).utf8String(">= 0", 1)

	got, err := Unmarshal(e.b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	exp := []any{
		map[string]any{
			"name":     "rails",
			"number":   "7.0.0",
			"platform": "ruby",
			"dependencies": []any{
				[]any{"thor", ">= 0"},
			},
		},
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshal_ObjectLink(t *testing.T) {
	// ["ruby", <link to "ruby">]; the array is object 0 and the string object 1.
	data := newEnc().array(2).raw(tagString, 0x09, 'r', 'u', 'b', 'y').raw(tagLink).long(1).b

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff([]any{"ruby", "ruby"}, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshal_HashWithDefault(t *testing.T) {
	data := newEnc().raw(tagHashDefault).long(1).symbol("a").fixnum(1).fixnum(0).b

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff(map[string]any{"a": int64(1)}, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshal_Errors(t *testing.T) {
	testCases := map[string]struct {
		data []byte
		err  error
	}{
		"empty": {
			data: nil,
			err:  ErrTruncated,
		},
		"badVersion": {
			data: []byte{0x03, 0x00, tagNil},
			err:  ErrVersion,
		},
		"newerMinor": {
			data: []byte{0x04, 0x09, tagNil},
			err:  ErrVersion,
		},
		"noValue": {
			data: []byte{0x04, 0x08},
			err:  ErrTruncated,
		},
		"trailingBytes": {
			data: newEnc().raw(tagNil, tagNil).b,
			err:  ErrMalformed,
		},
		"objectRejected": {
			data: newEnc().raw('o').symbol("Gem::Version").long(0).b,
			err:  ErrUnsupportedType,
		},
		"userDumpRejected": {
			data: newEnc().raw('u').symbol("Gem::Version").long(0).b,
			err:  ErrUnsupportedType,
		},
		"arrayLengthExceedsInput": {
			data: newEnc().array(100).fixnum(1).b,
			err:  ErrTruncated,
		},
		"stringLengthExceedsInput": {
			data: newEnc().raw(tagString).long(50).raw('a').b,
			err:  ErrTruncated,
		},
		"negativeLength": {
			data: newEnc().array(-3).b,
			err:  ErrMalformed,
		},
		"symlinkOutOfRange": {
			data: newEnc().symlink(3).b,
			err:  ErrMalformed,
		},
		"objectLinkOutOfRange": {
			data: newEnc().raw(tagLink).long(0).b,
			err:  ErrMalformed,
		},
		"integerHashKey": {
			data: newEnc().hash(1).fixnum(1).fixnum(2).b,
			err:  ErrUnsupportedType,
		},
		"badFloat": {
			data: newEnc().raw(tagFloat, 0x08, 'a', 'b', 'c').b,
			err:  ErrMalformed,
		},
		"badBignumSign": {
			data: newEnc().raw(tagBignum, '*').long(1).raw(1, 0).b,
			err:  ErrMalformed,
		},
		"ivarKeyNotSymbol": {
			data: newEnc().raw(tagIvar, tagString, 0x06, 'a').long(1).fixnum(1).raw(tagTrue).b,
			err:  ErrMalformed,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal(tc.data)
			if !errors.Is(err, tc.err) {
				t.Fatalf("exp err %v, got: %v", tc.err, err)
			}

			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Errorf("expected *SyntaxError, got %T", err)
			}
		})
	}
}

func TestUnmarshal_TooDeep(t *testing.T) {
	e := newEnc()
	for range maxDepth + 2 {
		e.array(1)
	}
	e.raw(tagNil)

	if _, err := Unmarshal(e.b); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got: %v", err)
	}
}

type names []string

func (n *names) UnmarshalMarshal(v any) error {
	arr, ok := v.([]any)
	if !ok {
		return errors.New("not an array")
	}
	for _, item := range arr {
		s, ok := AsString(item)
		if !ok {
			return errors.New("not a string")
		}
		*n = append(*n, s)
	}
	return nil
}

func TestUnmarshalTo(t *testing.T) {
	data := newEnc().array(2).symbol("rails").utf8String("thor", -1).b

	var got names
	if err := UnmarshalTo(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff(names{"rails", "thor"}, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}
