package memoize

import (
	"bytes"
	"crypto/sha256"
	"encoding"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// KeyPrefix starts every key produced by Key.
const KeyPrefix = "memoize_"

// Key accumulates the canonical serialization of a call's arguments and turns
// it into a cache key of the form memoize_<service>_<method>_<sha256 hex>.
//
// The serialization records values, not types: int8(1) and int64(1) fold to the
// same bytes, as do two structs with equal fields but different names.
type Key struct {
	service string
	method  string
	buf     bytes.Buffer
}

// NewKey starts a key for a method of a service.
func NewKey(serviceID, method string) *Key {
	return &Key{service: SanitizeServiceID(serviceID), method: method}
}

// Add folds one argument into the key.
func (k *Key) Add(arg any) *Key {
	writeValue(&k.buf, reflect.ValueOf(arg), nil)
	return k
}

// String hashes the accumulated arguments and returns the key.
func (k *Key) String() string {
	sum := sha256.Sum256(k.buf.Bytes())
	return KeyPrefix + k.service + "_" + k.method + "_" + hex.EncodeToString(sum[:])
}

// SanitizeServiceID drops every character outside [A-Za-z0-9_.].
func SanitizeServiceID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			return r
		default:
			return -1
		}
	}, id)
}

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

// writeValue appends a self-delimiting encoding of v. seen holds the pointers,
// maps and slices on the current path; a revisit is written as R;.
func writeValue(buf *bytes.Buffer, v reflect.Value, seen map[uintptr]bool) {
	if !v.IsValid() {
		buf.WriteString("N;")
		return
	}

	if v.Type().Implements(textMarshalerType) && v.CanInterface() {
		if (v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface) || !v.IsNil() {
			if text, err := v.Interface().(encoding.TextMarshaler).MarshalText(); err == nil {
				writeString(buf, 't', string(text))
				return
			}
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			buf.WriteString("b:1;")
		} else {
			buf.WriteString("b:0;")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString("i:")
		buf.WriteString(strconv.FormatInt(v.Int(), 10))
		buf.WriteByte(';')
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString("i:")
		buf.WriteString(strconv.FormatUint(v.Uint(), 10))
		buf.WriteByte(';')
	case reflect.Float32, reflect.Float64:
		buf.WriteString("d:")
		buf.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))
		buf.WriteByte(';')
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		buf.WriteString("c:")
		buf.WriteString(strconv.FormatFloat(real(c), 'g', -1, 64))
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatFloat(imag(c), 'g', -1, 64))
		buf.WriteByte(';')
	case reflect.String:
		writeString(buf, 's', v.String())
	case reflect.Pointer:
		if v.IsNil() {
			buf.WriteString("N;")
			return
		}
		seen, ok := enter(buf, v.Pointer(), seen)
		if !ok {
			return
		}
		writeValue(buf, v.Elem(), seen)
		delete(seen, v.Pointer())
	case reflect.Interface:
		if v.IsNil() {
			buf.WriteString("N;")
			return
		}
		writeValue(buf, v.Elem(), seen)
	case reflect.Slice:
		if v.IsNil() {
			buf.WriteString("N;")
			return
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			writeString(buf, 's', string(v.Bytes()))
			return
		}
		if v.Len() == 0 {
			writeList(buf, v, seen)
			return
		}
		seen, ok := enter(buf, v.Pointer(), seen)
		if !ok {
			return
		}
		writeList(buf, v, seen)
		delete(seen, v.Pointer())
	case reflect.Array:
		writeList(buf, v, seen)
	case reflect.Map:
		if v.IsNil() {
			buf.WriteString("N;")
			return
		}
		seen, ok := enter(buf, v.Pointer(), seen)
		if !ok {
			return
		}
		writeMap(buf, v, seen)
		delete(seen, v.Pointer())
	case reflect.Struct:
		t := v.Type()
		fmt.Fprintf(buf, "O:%d:{", v.NumField())
		for i := 0; i < v.NumField(); i++ {
			writeString(buf, 's', t.Field(i).Name)
			writeValue(buf, v.Field(i), seen)
		}
		buf.WriteByte('}')
	default:
		// funcs, channels and unsafe pointers are keyed by identity
		fmt.Fprintf(buf, "p:%x;", v.Pointer())
	}
}

// enter marks addr as being written. It writes R; and reports false when addr
// is already on the path.
func enter(buf *bytes.Buffer, addr uintptr, seen map[uintptr]bool) (map[uintptr]bool, bool) {
	if seen[addr] {
		buf.WriteString("R;")
		return seen, false
	}
	if seen == nil {
		seen = make(map[uintptr]bool)
	}
	seen[addr] = true
	return seen, true
}

func writeString(buf *bytes.Buffer, tag byte, s string) {
	buf.WriteByte(tag)
	buf.WriteByte(':')
	buf.WriteString(strconv.Itoa(len(s)))
	buf.WriteString(":\"")
	buf.WriteString(s)
	buf.WriteString("\";")
}

func writeList(buf *bytes.Buffer, v reflect.Value, seen map[uintptr]bool) {
	fmt.Fprintf(buf, "a:%d:{", v.Len())
	for i := 0; i < v.Len(); i++ {
		writeValue(buf, v.Index(i), seen)
	}
	buf.WriteByte('}')
}

func writeMap(buf *bytes.Buffer, v reflect.Value, seen map[uintptr]bool) {
	type pair struct {
		key   string
		value reflect.Value
	}

	pairs := make([]pair, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		var kb bytes.Buffer
		writeValue(&kb, iter.Key(), seen)
		pairs = append(pairs, pair{key: kb.String(), value: iter.Value()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	fmt.Fprintf(buf, "a:%d:{", len(pairs))
	for _, p := range pairs {
		buf.WriteString(p.key)
		writeValue(buf, p.value, seen)
	}
	buf.WriteByte('}')
}
