package wasmcompile

import (
	"bytes"
	"testing"
)

func TestUleb128KnownValues(t *testing.T) {
	cases := map[uint32][]byte{
		0:   {0x00},
		127: {0x7F},
		128: {0x80, 0x01},
		300: {0xAC, 0x02},
	}
	for in, want := range cases {
		got := uleb128(in)
		if !bytes.Equal(got, want) {
			t.Errorf("uleb128(%d) = % X, want % X", in, got, want)
		}
	}
}

func TestSleb128KnownValues(t *testing.T) {
	cases := map[int64][]byte{
		0:   {0x00},
		-1:  {0x7F},
		63:  {0x3F},
		64:  {0xC0, 0x00},
		-64: {0x40},
	}
	for in, want := range cases {
		got := sleb128(in)
		if !bytes.Equal(got, want) {
			t.Errorf("sleb128(%d) = % X, want % X", in, got, want)
		}
	}
}

func TestSectionPrependsIdAndLength(t *testing.T) {
	content := []byte{1, 2, 3}
	got := section(0x01, content)
	if got[0] != 0x01 {
		t.Fatalf("section id byte = %#x, want 0x01", got[0])
	}
	if !bytes.Equal(got[len(got)-len(content):], content) {
		t.Error("section should end with its content")
	}
}

func TestBufNameLengthPrefixes(t *testing.T) {
	b := &buf{}
	b.name("init")
	if b.b[0] != 4 {
		t.Fatalf("name length prefix = %d, want 4", b.b[0])
	}
	if string(b.b[1:]) != "init" {
		t.Errorf("name bytes = %q, want %q", b.b[1:], "init")
	}
}
