package abus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	seq := make([]byte, 20)
	for i := range seq {
		seq[i] = byte(i)
	}

	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{name: "empty", data: nil, want: 0x0000},
		{name: "whitening byte cancels", data: []byte{0x5A}, want: 0x0000},
		{name: "single zero", data: []byte{0x00}, want: 0xC2FE},
		{name: "sequence wraps table", data: seq, want: 0x03F6},
		{
			name: "ping frame body",
			data: []byte{0xAA, 0x55, 0x05, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00},
			want: 0x354B,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Checksum(tt.data))
		})
	}
}

func TestChecksumSingleBitFlip(t *testing.T) {
	raw, err := Encode(&ReadCodeBlockRequest{Header: NewRequestHeader(1000, 1), SegmentNumber: 3, BlockSize: 128})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	body := raw[:len(raw)-2]
	want := Checksum(body)

	for i := range body {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), body...)
			flipped[i] ^= 1 << bit
			if Checksum(flipped) == want {
				t.Fatalf("flip of byte %d bit %d left checksum 0x%04X unchanged", i, bit, want)
			}
		}
	}
}
