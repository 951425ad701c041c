package speech

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	wav := EncodeWAV(pcm, CaptureRate)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("len = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("bad header: %q", wav[:12])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != CaptureRate {
		t.Errorf("sample rate = %d", rate)
	}

	got, err := decodePCM(wav)
	if err != nil {
		t.Fatalf("decodePCM: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("pcm = %v, want %v", got, pcm)
	}
}

func TestDecodePCM(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    []byte
		wantErr bool
	}{
		{"raw pcm passes through", []byte{9, 8, 7, 6}, []byte{9, 8, 7, 6}, false},
		{"empty", nil, nil, true},
		{"riff without wave", append([]byte("RIFF\x00\x00\x00\x00JUNK"), 0, 0), nil, true},
		{"no data chunk", []byte("RIFF\x00\x00\x00\x00WAVEfmt \x00\x00\x00\x00"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodePCM(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
