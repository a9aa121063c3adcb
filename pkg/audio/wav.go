package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)


func NewWavBuffer(pcm []byte, sampleRate int) []byte {
	buf := new(bytes.Buffer)

	
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))           
	binary.Write(buf, binary.LittleEndian, uint16(1))            
	binary.Write(buf, binary.LittleEndian, uint16(1))            
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))   
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) 
	binary.Write(buf, binary.LittleEndian, uint16(2))            
	binary.Write(buf, binary.LittleEndian, uint16(16))           

	
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// ReadWavFile loads path and returns its raw PCM sample data along with
// the sample rate recorded in the "fmt " chunk. Only uncompressed PCM
// (format tag 1) mono/stereo 16-bit files are supported, which is what
// NewWavBuffer produces.
func ReadWavFile(path string) (pcm []byte, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav file: %w", err)
	}
	defer f.Close()

	var riffHeader [12]byte
	if _, err := io.ReadFull(f, riffHeader[:]); err != nil {
		return nil, 0, fmt.Errorf("read riff header: %w", err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	for {
		var chunkID [4]byte
		var chunkSize uint32
		if _, err := io.ReadFull(f, chunkID[:]); err != nil {
			return nil, 0, fmt.Errorf("read chunk id: %w", err)
		}
		if err := binary.Read(f, binary.LittleEndian, &chunkSize); err != nil {
			return nil, 0, fmt.Errorf("read chunk size: %w", err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			fmtBody := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, fmtBody); err != nil {
				return nil, 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			sampleRate = int(binary.LittleEndian.Uint32(fmtBody[4:8]))
		case "data":
			pcm = make([]byte, chunkSize)
			if _, err := io.ReadFull(f, pcm); err != nil {
				return nil, 0, fmt.Errorf("read data chunk: %w", err)
			}
			return pcm, sampleRate, nil
		default:
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, 0, fmt.Errorf("skip chunk %s: %w", string(chunkID[:]), err)
			}
		}
	}
}
