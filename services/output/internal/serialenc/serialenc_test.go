package serialenc

import (
	"bytes"
	"testing"
)

func drain(t *testing.T, e Encoder, limit int) []byte {
	t.Helper()
	var out []byte
	for i := 0; i < limit; i++ {
		b, ok := e.NextByte()
		if !ok {
			return out
		}
		out = append(out, b)
	}
	t.Fatalf("encoder did not finish within %d bytes", limit)
	return nil
}

// unstuff reverses Renard byte stuffing.
func unstuff(wire []byte) []byte {
	var out []byte
	for i := 0; i < len(wire); i++ {
		if wire[i] == RenardEscape && i+1 < len(wire) {
			i++
			out = append(out, wire[i]+RenardEscapeOffset)
			continue
		}
		out = append(out, wire[i])
	}
	return out
}

func TestDMXFrame(t *testing.T) {
	e := NewDMX()
	if e.State() != Idle {
		t.Fatalf("new encoder state=%v", e.State())
	}
	buf := []byte{1, 2, 255}
	e.StartNewFrame(buf)
	got := drain(t, e, 16)
	if want := []byte{0x00, 1, 2, 255}; !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
	if e.State() != Idle || e.Cursor() != 3 {
		t.Fatalf("state=%v cursor=%d", e.State(), e.Cursor())
	}
	if _, ok := e.NextByte(); ok {
		t.Fatal("idle encoder produced a byte")
	}
}

func TestDMXEmptyBuffer(t *testing.T) {
	e := NewDMX()
	e.StartNewFrame(nil)
	got := drain(t, e, 4)
	if !bytes.Equal(got, []byte{DMXStartCode}) {
		t.Fatalf("got % x", got)
	}
}

func TestRenardEscapes(t *testing.T) {
	e := NewRenard()
	buf := []byte{0x10, 0x7D, 0x7E, 0x7F, 0x80}
	e.StartNewFrame(buf)
	got := drain(t, e, 32)
	want := []byte{
		RenardFrameStart, RenardDataStart,
		0x10,
		RenardEscape, 0x2F,
		RenardEscape, 0x30,
		RenardEscape, 0x31,
		0x80,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
	if e.State() != Idle || e.Cursor() != len(buf) {
		t.Fatalf("state=%v cursor=%d", e.State(), e.Cursor())
	}
}

func TestRenardRoundTripAllValues(t *testing.T) {
	buf := make([]byte, 256)
	for i := range buf {
		buf[i] = byte(i)
	}
	e := NewRenard()
	e.StartNewFrame(buf)
	wire := drain(t, e, 1024)
	if wire[0] != RenardFrameStart || wire[1] != RenardDataStart {
		t.Fatalf("bad preamble % x", wire[:2])
	}
	payload := wire[2:]
	for i, b := range payload {
		if b == RenardFrameStart && (i == 0 || payload[i-1] != RenardEscape) {
			t.Fatalf("unescaped sync byte at %d", i)
		}
	}
	if got := unstuff(payload); !bytes.Equal(got, buf) {
		t.Fatalf("round trip mismatch")
	}
}

func TestRenardEscapedLastByte(t *testing.T) {
	e := NewRenard()
	e.StartNewFrame([]byte{0x7E})
	got := drain(t, e, 8)
	want := []byte{RenardFrameStart, RenardDataStart, RenardEscape, 0x30}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

func TestGenericHeaderFooter(t *testing.T) {
	e := NewGeneric()
	e.SetFraming([]byte("H1"), []byte("F"))
	e.StartNewFrame([]byte{10, 20, 30})
	if e.State() != Header {
		t.Fatalf("state=%v", e.State())
	}
	got := drain(t, e, 16)
	if want := []byte{'H', '1', 10, 20, 30, 'F'}; !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
	if e.State() != Idle {
		t.Fatalf("state=%v", e.State())
	}
}

func TestGenericNoFraming(t *testing.T) {
	e := NewGeneric()
	e.StartNewFrame([]byte{7, 8})
	if e.State() != Data {
		t.Fatalf("state=%v", e.State())
	}
	got := drain(t, e, 8)
	if !bytes.Equal(got, []byte{7, 8}) {
		t.Fatalf("got % x", got)
	}
}

func TestGenericFooterOnly(t *testing.T) {
	e := NewGeneric()
	e.SetFraming(nil, []byte{0xAA, 0x55})
	e.StartNewFrame(nil)
	if e.State() != Footer {
		t.Fatalf("state=%v", e.State())
	}
	got := drain(t, e, 8)
	if !bytes.Equal(got, []byte{0xAA, 0x55}) {
		t.Fatalf("got % x", got)
	}
}

func TestStartNewFrameRestarts(t *testing.T) {
	e := NewGeneric()
	e.SetFraming([]byte{0xFF}, nil)
	e.StartNewFrame([]byte{1, 2, 3})
	e.NextByte()
	e.NextByte()
	e.StartNewFrame([]byte{4})
	got := drain(t, e, 8)
	if !bytes.Equal(got, []byte{0xFF, 4}) {
		t.Fatalf("got % x", got)
	}
}

func TestStateString(t *testing.T) {
	if EscapedData.String() != "escaped_data" || State(99).String() != "invalid" {
		t.Fatal("unexpected state names")
	}
}
