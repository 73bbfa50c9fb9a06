// Canonicalize implements the JSON Canonicalization Scheme (RFC 8785):
// UTF-8 output, object members sorted by the UTF-16 code units of their
// key, no insignificant whitespace, numbers in their shortest
// round-tripping form. It is the single shared implementation consulted
// by the credential issuer, verifier, and audit log (spec §4.1, §9):
// any fork of this logic breaks every signature in the system.
package crypto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"unicode/utf16"

	trusterrors "github.com/agentrust/trustcore/errors"
)

// Canonicalize parses the given JSON document and re-serializes it in
// RFC 8785 canonical form.
func Canonicalize(doc []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, trusterrors.MalformedInputError("invalid JSON: %v", err)
	}
	if dec.More() {
		return nil, trusterrors.MalformedInputError("trailing data after JSON document")
	}
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CanonicalizeValue canonicalizes an already-decoded Go value (maps,
// slices, strings, json.Number, bool, nil) without a parse round-trip.
// Issuers building a VC in memory use this to avoid re-parsing their own
// just-built document.
func CanonicalizeValue(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		s, err := canonicalNumber(val)
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case float64:
		s, err := canonicalNumber(json.Number(strconv.FormatFloat(val, 'g', -1, 64)))
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case string:
		encodeCanonicalString(buf, val)
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return utf16Less(keys[i], keys[j]) })
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := encodeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return trusterrors.MalformedInputError("unsupported JSON value type %T", v)
	}
	return nil
}

// utf16Less compares two strings by the numeric value of their UTF-16
// code units, as RFC 8785 §3.2.3 requires, rather than by raw byte or
// rune comparison (which would mis-sort characters outside the Basic
// Multilingual Plane relative to the spec).
func utf16Less(a, b string) bool {
	au := utf16.Encode([]rune(a))
	bu := utf16.Encode([]rune(b))
	for i := 0; i < len(au) && i < len(bu); i++ {
		if au[i] != bu[i] {
			return au[i] < bu[i]
		}
	}
	return len(au) < len(bu)
}

func encodeCanonicalString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// canonicalNumber renders n in RFC 8785's required ECMAScript Number
// shortest round-trip form.
func canonicalNumber(n json.Number) (string, error) {
	f, err := n.Float64()
	if err != nil {
		return "", trusterrors.MalformedInputError("invalid number %q: %v", n.String(), err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", trusterrors.MalformedInputError("number %q is not finite", n.String())
	}
	if f == 0 {
		// Covers negative zero, which ECMAScript renders as "0".
		return "0", nil
	}
	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	return normalizeExponent(s), nil
}

// normalizeExponent rewrites Go's exponent form (e+05) into the
// ECMAScript form (e+5) required by RFC 8785.
func normalizeExponent(s string) string {
	idx := -1
	for i, c := range s {
		if c == 'e' || c == 'E' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}
	mantissa, exp := s[:idx], s[idx+1:]
	sign := "+"
	if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
		if exp[0] == '-' {
			sign = "-"
		}
		exp = exp[1:]
	}
	for len(exp) > 1 && exp[0] == '0' {
		exp = exp[1:]
	}
	return fmt.Sprintf("%se%s%s", mantissa, sign, exp)
}
