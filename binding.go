package mysqlclient

import (
	"fmt"
	"unsafe"

	"github.com/google/uuid"

	"github.com/LadybugDB/go-mysqlclient/native"
)

// scalar is the set of fixed-width Go types with a native type tag.
type scalar interface {
	int8 | int16 | int32 | int64 | int | float32 | float64
}

// scalarTag maps a fixed-width Go type to its native type tag. The width is
// always the Go size of T, so the tag and the buffer length agree.
func scalarTag[T scalar]() native.FieldType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return native.TypeTiny
	case int16:
		return native.TypeShort
	case int32:
		return native.TypeLong
	case int64:
		return native.TypeLongLong
	case int:
		if unsafe.Sizeof(zero) == 8 {
			return native.TypeLongLong
		}
		return native.TypeLong
	case float32:
		return native.TypeFloat
	case float64:
		return native.TypeDouble
	}
	return native.TypeNull
}

func scalarBind[T scalar](p *T) (native.Bind, error) {
	if p == nil {
		return native.Bind{}, fmt.Errorf("%w: nil %T", ErrUnsupportedType, p)
	}
	return native.Bind{
		Type:         scalarTag[T](),
		Buffer:       unsafe.Pointer(p),
		BufferLength: uint64(unsafe.Sizeof(*p)),
	}, nil
}

func bytesBind(t native.FieldType, buf []byte) native.Bind {
	return native.Bind{
		Type:         t,
		Buffer:       unsafe.Pointer(unsafe.SliceData(buf)),
		BufferLength: uint64(len(buf)),
	}
}

// describe turns a caller-owned value into a binding descriptor without
// copying it. Pointers to scalars bind the pointed-to variable, byte slices
// bind their backing array.
func describe(value any) (native.Bind, error) {
	switch v := value.(type) {
	case *int8:
		return scalarBind(v)
	case *int16:
		return scalarBind(v)
	case *int32:
		return scalarBind(v)
	case *int64:
		return scalarBind(v)
	case *int:
		return scalarBind(v)
	case *float32:
		return scalarBind(v)
	case *float64:
		return scalarBind(v)
	case []byte:
		return bytesBind(native.TypeBlob, v), nil
	case *uuid.UUID:
		if v == nil {
			return native.Bind{}, fmt.Errorf("%w: nil %T", ErrUnsupportedType, v)
		}
		return bytesBind(native.TypeBlob, v[:]), nil
	}
	return native.Bind{}, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
}
