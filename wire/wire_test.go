package wire

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/arqvault/arqvault/arqerr"
	"github.com/arqvault/arqvault/internal/arqtest"
)

func newReader(data []byte) *Reader {
	return NewReader(bytes.NewReader(data))
}

func TestReadBytes(t *testing.T) {
	r := newReader([]byte{12, 34, 11, 56, 78, 92})

	got, err := r.ReadBytes(2)
	if err != nil {
		t.Fatalf("ReadBytes(2): %v", err)
	}
	if !bytes.Equal(got, []byte{12, 34}) {
		t.Errorf("ReadBytes(2) = %v", got)
	}

	got, err = r.ReadBytes(4)
	if err != nil {
		t.Fatalf("ReadBytes(4): %v", err)
	}
	if !bytes.Equal(got, []byte{11, 56, 78, 92}) {
		t.Errorf("ReadBytes(4) = %v", got)
	}

	got, err = r.ReadBytes(0)
	if err != nil {
		t.Fatalf("ReadBytes(0): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadBytes(0) = %v", got)
	}
}

func TestReadBytesShort(t *testing.T) {
	r := newReader([]byte{1, 2})
	if _, err := r.ReadBytes(4); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("short read error = %v, want unexpected EOF", err)
	}
}

func TestReadU32(t *testing.T) {
	r := newReader([]byte{0, 0, 0, 2, 255, 255, 255, 255})
	n, err := r.ReadU32()
	if err != nil || n != 2 {
		t.Errorf("ReadU32 = %d, %v", n, err)
	}
	n, err = r.ReadU32()
	if err != nil || n != 0xffffffff {
		t.Errorf("ReadU32 = %d, %v", n, err)
	}
}

func TestReadI32(t *testing.T) {
	r := newReader([]byte{0, 0, 0, 2, 254, 255, 255, 255})
	n, err := r.ReadI32()
	if err != nil || n != 2 {
		t.Errorf("ReadI32 = %d, %v", n, err)
	}
	n, err = r.ReadI32()
	if err != nil || n != -16777217 {
		t.Errorf("ReadI32 = %d, %v", n, err)
	}
}

func TestReadU64(t *testing.T) {
	r := newReader([]byte{0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 254, 255, 255, 255})
	n, err := r.ReadU64()
	if err != nil || n != 2 {
		t.Errorf("ReadU64 = %d, %v", n, err)
	}
	n, err = r.ReadU64()
	if err != nil || n != 4278190079 {
		t.Errorf("ReadU64 = %d, %v", n, err)
	}
}

func TestReadI64(t *testing.T) {
	r := newReader([]byte{
		0, 0, 0, 0, 0, 0, 0, 2,
		254, 255, 255, 255, 255, 255, 255, 255,
		127, 255, 255, 255, 255, 255, 255, 255,
	})
	n, err := r.ReadI64()
	if err != nil || n != 2 {
		t.Errorf("ReadI64 = %d, %v", n, err)
	}
	n, err = r.ReadI64()
	if err != nil || n != -72057594037927937 {
		t.Errorf("ReadI64 = %d, %v", n, err)
	}
	n, err = r.ReadI64()
	if err != nil || n != 9223372036854775807 {
		t.Errorf("ReadI64 = %d, %v", n, err)
	}
}

func TestReadBool(t *testing.T) {
	r := newReader([]byte{0, 1, 2})
	for i, want := range []bool{false, true, false} {
		got, err := r.ReadBool()
		if err != nil {
			t.Fatalf("ReadBool #%d: %v", i, err)
		}
		if got != want {
			t.Errorf("ReadBool #%d = %v, want %v", i, got, want)
		}
	}
}

func TestReadString(t *testing.T) {
	r := newReader([]byte{0})
	s, err := r.ReadString()
	if err != nil || s != "" {
		t.Errorf("absent string = %q, %v", s, err)
	}

	// Four letter string: AHBH
	r = newReader([]byte{1, 0, 0, 0, 0, 0, 0, 0, 4, 65, 72, 66, 72})
	s, err = r.ReadString()
	if err != nil || s != "AHBH" {
		t.Errorf("present string = %q, %v", s, err)
	}
}

func TestReadStringInvalidUTF8(t *testing.T) {
	r := newReader([]byte{1, 0, 0, 0, 0, 0, 0, 0, 2, 0xff, 0xfe})
	if _, err := r.ReadString(); !errors.Is(err, arqerr.ErrConversion) {
		t.Errorf("invalid utf-8 error = %v, want ErrConversion", err)
	}
}

func TestReadData(t *testing.T) {
	r := newReader([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	data, err := r.ReadData()
	if err != nil || len(data) != 0 {
		t.Errorf("empty data = %v, %v", data, err)
	}

	r = newReader([]byte{0, 0, 0, 0, 0, 0, 0, 3, 1, 2, 3})
	data, err = r.ReadData()
	if err != nil || !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("data = %v, %v", data, err)
	}
}

func TestReadDate(t *testing.T) {
	r := newReader([]byte{0})
	d, err := r.ReadDate()
	if err != nil {
		t.Fatalf("absent date: %v", err)
	}
	if !d.IsZero() {
		t.Errorf("absent date = %d ms", d.MillisecondsSinceEpoch)
	}

	r = newReader([]byte{1, 0, 0, 0, 127, 167, 127, 83, 0})
	d, err = r.ReadDate()
	if err != nil {
		t.Fatalf("present date: %v", err)
	}
	if got := d.String(); got != "1987-05-17 17:29:45 UTC" {
		t.Errorf("date = %q", got)
	}
}

func TestReadCompressionType(t *testing.T) {
	cases := []struct {
		raw  []byte
		want CompressionType
	}{
		{[]byte{0, 0, 0, 0}, CompressionNone},
		{[]byte{0, 0, 0, 1}, CompressionGzip},
		{[]byte{0, 0, 0, 2}, CompressionLZ4},
	}
	for _, tc := range cases {
		ct, err := newReader(tc.raw).ReadCompressionType()
		if err != nil {
			t.Fatalf("compression type %v: %v", tc.raw, err)
		}
		if ct != tc.want {
			t.Errorf("compression type %v = %v, want %v", tc.raw, ct, tc.want)
		}
	}

	if _, err := newReader([]byte{0, 0, 0, 9}).ReadCompressionType(); !errors.Is(err, arqerr.ErrParse) {
		t.Errorf("unknown tag error = %v, want ErrParse", err)
	}
}

func TestPrimitiveRoundTrip(t *testing.T) {
	var b []byte
	b = arqtest.AppendBool(b, true)
	b = arqtest.AppendU32(b, 0xdeadbeef)
	b = arqtest.AppendI32(b, -12345)
	b = arqtest.AppendU64(b, 1<<40)
	b = arqtest.AppendI64(b, -1<<40)
	b = arqtest.AppendString(b, "nonempty")
	b = arqtest.AppendString(b, "")
	b = arqtest.AppendData(b, []byte{9, 8, 7})
	b = arqtest.AppendDate(b, 548270985984)
	b = arqtest.AppendI32(b, 2)

	r := newReader(b)
	if v, _ := r.ReadBool(); !v {
		t.Error("bool round trip")
	}
	if v, _ := r.ReadU32(); v != 0xdeadbeef {
		t.Errorf("u32 round trip = %x", v)
	}
	if v, _ := r.ReadI32(); v != -12345 {
		t.Errorf("i32 round trip = %d", v)
	}
	if v, _ := r.ReadU64(); v != 1<<40 {
		t.Errorf("u64 round trip = %d", v)
	}
	if v, _ := r.ReadI64(); v != -1<<40 {
		t.Errorf("i64 round trip = %d", v)
	}
	if v, _ := r.ReadString(); v != "nonempty" {
		t.Errorf("string round trip = %q", v)
	}
	if v, _ := r.ReadString(); v != "" {
		t.Errorf("empty string round trip = %q", v)
	}
	if v, _ := r.ReadData(); !bytes.Equal(v, []byte{9, 8, 7}) {
		t.Errorf("data round trip = %v", v)
	}
	if v, _ := r.ReadDate(); v.MillisecondsSinceEpoch != 548270985984 {
		t.Errorf("date round trip = %d", v.MillisecondsSinceEpoch)
	}
	if v, _ := r.ReadCompressionType(); v != CompressionLZ4 {
		t.Errorf("compression type round trip = %v", v)
	}
}

func TestHexEncoding(t *testing.T) {
	data := []byte{0x0c, 0x22, 0x0b, 0x38, 0x4e, 0x5c}
	if got := hex.EncodeToString(data); got != "0c220b384e5c" {
		t.Errorf("hex = %q", got)
	}
	if got := hex.EncodeToString(nil); got != "" {
		t.Errorf("hex of empty = %q", got)
	}
}
