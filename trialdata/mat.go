package trialdata

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MAT-file level 5 data types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
)

// MAT-file array classes.
const (
	mxCELL   = 1
	mxSTRUCT = 2
	mxOBJECT = 3
	mxCHAR   = 4
	mxSPARSE = 5
	mxDOUBLE = 6
	mxUINT64 = 15
)

const (
	matHeaderLen   = 128
	matComplexFlag = 0x0800
)

type matElement struct {
	typ  uint32
	data []byte
}

type matArray struct {
	name    string
	class   uint32
	complex bool
	dims    []int
	real    []float64
}

// decodeMAT reads a numeric array from a MATLAB level 5 MAT-file.
func decodeMAT(r io.Reader, variable string) ([]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	order, err := matByteOrder(data)
	if err != nil {
		return nil, err
	}

	found := false
	var values []float64

	err = walkMATElements(data[matHeaderLen:], order,
		func(a *matArray) (bool, error) {
			if a.name != variable {
				return false, nil
			}

			found = true

			v, err := a.values()
			values = v

			return true, err
		})
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("%w: %q", ErrVariableNotFound, variable)
	}

	return values, nil
}

func matByteOrder(data []byte) (binary.ByteOrder, error) {
	if len(data) < matHeaderLen {
		return nil, fmt.Errorf("%w: MAT header is truncated", ErrMalformed)
	}

	if bytes.HasPrefix(data, []byte("MATLAB 7.3")) {
		return nil, fmt.Errorf("%w: MAT-file v7.3 (HDF5), re-save with -v7",
			ErrUnsupportedFormat)
	}

	if !bytes.HasPrefix(data, []byte("MATLAB 5.0 MAT-file")) {
		return nil, fmt.Errorf("%w: not a level 5 MAT-file", ErrMalformed)
	}

	switch string(data[126:128]) {
	case "IM":
		return binary.LittleEndian, nil
	case "MI":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("%w: bad MAT endian indicator %q",
			ErrMalformed, data[126:128])
	}
}

// walkMATElements visits every array in buf, inflating compressed elements.
// The visit stops when fn returns true.
func walkMATElements(
	buf []byte,
	order binary.ByteOrder,
	fn func(*matArray) (bool, error),
) error {
	for len(buf) > 0 {
		el, rest, err := nextMATElement(buf, order)
		if err != nil {
			return err
		}
		buf = rest

		switch el.typ {
		case miCOMPRESSED:
			inner, err := inflate(el.data)
			if err != nil {
				return err
			}

			stop := false
			err = walkMATElements(inner, order,
				func(a *matArray) (bool, error) {
					var err error
					stop, err = fn(a)
					return stop, err
				})
			if err != nil || stop {
				return err
			}
		case miMATRIX:
			a, err := parseMATArray(el.data, order)
			if err != nil {
				return err
			}

			stop, err := fn(a)
			if err != nil || stop {
				return err
			}
		}
	}

	return nil
}

func nextMATElement(
	buf []byte,
	order binary.ByteOrder,
) (matElement, []byte, error) {
	if len(buf) < 8 {
		return matElement{}, nil, fmt.Errorf("%w: truncated data element",
			ErrMalformed)
	}

	first := order.Uint32(buf[0:4])

	// Small data elements pack the size into the upper half of the tag and
	// keep up to four bytes of data in the tag's second word.
	if size := first >> 16; size != 0 {
		if size > 4 {
			return matElement{}, nil, fmt.Errorf(
				"%w: small data element of %d bytes", ErrMalformed, size)
		}

		el := matElement{typ: first & 0xffff, data: buf[4 : 4+size]}
		return el, buf[8:], nil
	}

	size := order.Uint32(buf[4:8])
	if uint64(size) > uint64(len(buf)-8) {
		return matElement{}, nil, fmt.Errorf(
			"%w: data element of %d bytes exceeds file", ErrMalformed, size)
	}

	el := matElement{typ: first, data: buf[8 : 8+int(size)]}

	end := 8 + int(size)
	if first != miCOMPRESSED {
		end = (end + 7) &^ 7
		if end > len(buf) {
			end = len(buf)
		}
	}

	return el, buf[end:], nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: compressed element: %v", ErrMalformed, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: compressed element: %v", ErrMalformed, err)
	}

	return out, nil
}

func parseMATArray(buf []byte, order binary.ByteOrder) (*matArray, error) {
	flags, buf, err := nextMATElement(buf, order)
	if err != nil {
		return nil, err
	}

	if flags.typ != miUINT32 || len(flags.data) < 4 {
		return nil, fmt.Errorf("%w: bad array flags", ErrMalformed)
	}

	word := order.Uint32(flags.data[0:4])
	a := &matArray{
		class:   word & 0xff,
		complex: word&matComplexFlag != 0,
	}

	dims, buf, err := nextMATElement(buf, order)
	if err != nil {
		return nil, err
	}

	dimValues, err := decodeMATNumbers(dims.typ, dims.data, order)
	if err != nil {
		return nil, err
	}

	for _, d := range dimValues {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dimension", ErrMalformed)
		}
		a.dims = append(a.dims, int(d))
	}

	name, buf, err := nextMATElement(buf, order)
	if err != nil {
		return nil, err
	}
	a.name = string(name.data)

	if a.class < mxDOUBLE || a.class > mxUINT64 {
		// Cells, structs, objects, chars and sparse arrays are skipped; only
		// their name is needed to report a helpful error.
		return a, nil
	}

	realPart, _, err := nextMATElement(buf, order)
	if err != nil {
		return nil, err
	}

	a.real, err = decodeMATNumbers(realPart.typ, realPart.data, order)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *matArray) values() ([]float64, error) {
	switch a.class {
	case mxCELL, mxSTRUCT, mxOBJECT, mxCHAR, mxSPARSE:
		return nil, fmt.Errorf("%w: %q is not a numeric array (class %d)",
			ErrMalformed, a.name, a.class)
	}

	if a.class < mxDOUBLE || a.class > mxUINT64 {
		return nil, fmt.Errorf("%w: %q has unknown class %d",
			ErrMalformed, a.name, a.class)
	}

	if a.complex {
		return nil, fmt.Errorf("%w: %q is complex", ErrMalformed, a.name)
	}

	n := 1
	for _, d := range a.dims {
		n *= d
	}

	if n != len(a.real) {
		return nil, fmt.Errorf("%w: %q has %d values for dimensions %v",
			ErrMalformed, a.name, len(a.real), a.dims)
	}

	return rowMajor(a.real, a.dims), nil
}

// rowMajor reorders column-major MATLAB data into row-major order, so that a
// flattened matrix reads row by row.
func rowMajor(values []float64, dims []int) []float64 {
	if len(dims) < 2 {
		return values
	}

	strides := make([]int, len(dims))
	strides[0] = 1
	for d := 1; d < len(dims); d++ {
		strides[d] = strides[d-1] * dims[d-1]
	}

	out := make([]float64, len(values))
	subs := make([]int, len(dims))

	for k := range out {
		offset := 0
		for d := range dims {
			offset += subs[d] * strides[d]
		}
		out[k] = values[offset]

		for d := len(dims) - 1; d >= 0; d-- {
			subs[d]++
			if subs[d] < dims[d] {
				break
			}
			subs[d] = 0
		}
	}

	return out
}

func decodeMATNumbers(
	typ uint32,
	data []byte,
	order binary.ByteOrder,
) ([]float64, error) {
	width := map[uint32]int{
		miINT8: 1, miUINT8: 1,
		miINT16: 2, miUINT16: 2,
		miINT32: 4, miUINT32: 4, miSINGLE: 4,
		miDOUBLE: 8, miINT64: 8, miUINT64: 8,
	}[typ]

	if width == 0 {
		return nil, fmt.Errorf("%w: unsupported numeric type %d",
			ErrMalformed, typ)
	}

	if len(data)%width != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d",
			ErrMalformed, len(data), width)
	}

	out := make([]float64, len(data)/width)
	for i := range out {
		b := data[i*width : (i+1)*width]

		switch typ {
		case miINT8:
			out[i] = float64(int8(b[0]))
		case miUINT8:
			out[i] = float64(b[0])
		case miINT16:
			out[i] = float64(int16(order.Uint16(b)))
		case miUINT16:
			out[i] = float64(order.Uint16(b))
		case miINT32:
			out[i] = float64(int32(order.Uint32(b)))
		case miUINT32:
			out[i] = float64(order.Uint32(b))
		case miSINGLE:
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case miDOUBLE:
			out[i] = math.Float64frombits(order.Uint64(b))
		case miINT64:
			out[i] = float64(int64(order.Uint64(b)))
		case miUINT64:
			out[i] = float64(order.Uint64(b))
		}
	}

	return out, nil
}
