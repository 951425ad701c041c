package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// EncodeWAV wraps S16LE mono PCM in a 44-byte RIFF header.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	byteRate := sampleRate * ChannelCount * BitDepth / 8
	blockAlign := ChannelCount * BitDepth / 8

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(ChannelCount))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(BitDepth))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// decodePCM returns the PCM payload of a WAV file. Data without a RIFF
// header is treated as raw PCM already.
func decodePCM(audio []byte) ([]byte, error) {
	if len(audio) < 12 || string(audio[0:4]) != "RIFF" {
		if len(audio) == 0 {
			return nil, errors.New("empty audio")
		}
		return audio, nil
	}
	if string(audio[8:12]) != "WAVE" {
		return nil, errors.New("not a valid WAV file")
	}

	// Walk chunks to find "data".
	pos := 12
	for pos+8 <= len(audio) {
		id := string(audio[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(audio[pos+4 : pos+8]))
		if id == "data" {
			start := pos + 8
			end := start + size
			if end > len(audio) {
				end = len(audio)
			}
			return audio[start:end], nil
		}
		pos += 8 + size
		if size%2 != 0 {
			pos++
		}
	}
	return nil, errors.New("data chunk not found in WAV")
}
