// Package npyio reads and writes payoff tensors in the numpy .npy format,
// so that meta-games can be exchanged with Python training code.
package npyio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/timpalpant/psro/payoff"
)

var ErrFormat = errors.New("npyio: unsupported npy format")

var order = binary.LittleEndian

// The following is adapted from: github.com/sbinet/npyio
var magic = [6]byte{'\x93', 'N', 'U', 'M', 'P', 'Y'}

const (
	majorVersion = byte(2)
	minorVersion = byte(0)
	headerAlign  = 64
)

// Write encodes t as a little-endian float64 .npy array.
func Write(w io.Writer, t *payoff.Tensor) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, t.Shape); err != nil {
		return err
	}

	var buf [8]byte
	for _, x := range t.Data {
		order.PutUint64(buf[:], math.Float64bits(x))
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeHeader(w io.Writer, shape []int) error {
	if err := binary.Write(w, order, magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, order, majorVersion); err != nil {
		return err
	}
	if err := binary.Write(w, order, minorVersion); err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	fmt.Fprintf(buf,
		"{'descr': '<f8', 'fortran_order': False, 'shape': %s, }",
		formatShape(shape))

	// magic + version + uint32 header length + header + '\n' is a
	// multiple of headerAlign.
	hdrSize := len(magic) + 2 + 4
	padding := (headerAlign - (hdrSize+buf.Len()+1)%headerAlign) % headerAlign
	if _, err := buf.Write(bytes.Repeat([]byte{'\x20'}, padding)); err != nil {
		return err
	}
	if err := buf.WriteByte('\n'); err != nil {
		return err
	}

	buflen := int64(buf.Len())
	if err := binary.Write(w, order, uint32(buflen)); err != nil {
		return err
	}

	if n, err := io.Copy(w, buf); err != nil {
		return err
	} else if n < buflen {
		return io.ErrShortWrite
	}

	return nil
}

func formatShape(shape []int) string {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	if len(shape) == 1 {
		return "(" + dims[0] + ",)"
	}
	return "(" + strings.Join(dims, ", ") + ")"
}

var (
	descrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	fortranRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// Read decodes a .npy array of floating point or integer values into a
// payoff tensor. Only C-ordered arrays are supported.
func Read(r io.Reader) (*payoff.Tensor, error) {
	br := bufio.NewReader(r)
	var m [6]byte
	if _, err := io.ReadFull(br, m[:]); err != nil {
		return nil, errors.Wrap(err, "reading magic")
	}
	if m != magic {
		return nil, errors.Wrapf(ErrFormat, "bad magic %q", m[:])
	}

	var version [2]byte
	if _, err := io.ReadFull(br, version[:]); err != nil {
		return nil, errors.Wrap(err, "reading version")
	}

	var hdrLen int
	switch version[0] {
	case 1:
		var n uint16
		if err := binary.Read(br, order, &n); err != nil {
			return nil, errors.Wrap(err, "reading header length")
		}
		hdrLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(br, order, &n); err != nil {
			return nil, errors.Wrap(err, "reading header length")
		}
		hdrLen = int(n)
	default:
		return nil, errors.Wrapf(ErrFormat, "version %d.%d", version[0], version[1])
	}

	hdr := make([]byte, hdrLen)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, errors.Wrap(err, "reading header")
	}

	descr, shape, err := parseHeader(string(hdr))
	if err != nil {
		return nil, err
	}

	t := payoff.New(shape...)
	decode, size, err := decoder(descr)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	for i := range t.Data {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, errors.Wrapf(err, "reading element %d of %d", i, len(t.Data))
		}
		t.Data[i] = decode(buf)
	}

	return t, nil
}

func parseHeader(hdr string) (string, []int, error) {
	descr := descrRe.FindStringSubmatch(hdr)
	fortran := fortranRe.FindStringSubmatch(hdr)
	shapeStr := shapeRe.FindStringSubmatch(hdr)
	if descr == nil || fortran == nil || shapeStr == nil {
		return "", nil, errors.Wrapf(ErrFormat, "malformed header %q", hdr)
	}
	if fortran[1] == "True" {
		return "", nil, errors.Wrap(ErrFormat, "fortran-ordered arrays are not supported")
	}

	var shape []int
	for _, field := range strings.Split(shapeStr[1], ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		d, err := strconv.Atoi(strings.TrimSuffix(field, "L"))
		if err != nil || d < 0 {
			return "", nil, errors.Wrapf(ErrFormat, "bad shape %q", shapeStr[1])
		}
		shape = append(shape, d)
	}

	return descr[1], shape, nil
}

func decoder(descr string) (func([]byte) float64, int, error) {
	switch descr {
	case "<f8":
		return func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) }, 8, nil
	case "<f4":
		return func(b []byte) float64 { return float64(math.Float32frombits(order.Uint32(b))) }, 4, nil
	case "<i8":
		return func(b []byte) float64 { return float64(int64(order.Uint64(b))) }, 8, nil
	case "<i4":
		return func(b []byte) float64 { return float64(int32(order.Uint32(b))) }, 4, nil
	}

	return nil, 0, errors.Wrapf(ErrFormat, "dtype %q", descr)
}
