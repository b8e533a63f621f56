// Package jpegquality estimates IJG quality setting a JPEG image was encoded
// with by matching its luminance quantization table against scaled standard
// table.
package jpegquality

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var (
	ErrInvalidJPEG  = errors.New("invalid JPEG header")
	ErrWrongTable   = errors.New("wrong size for quantization table")
	ErrShortSegment = errors.New("short segment length")
	ErrShortDQT     = errors.New("section DQT is too short")
	ErrNoDQT        = errors.New("no quantization table before image data")
)

const (
	markerSOI = 0xffd8
	markerEOI = 0xffd9
	markerSOS = 0xffda
	markerDQT = 0xffdb
)

// luminance is the standard table from JPEG specification annex K in natural
// order.
var luminance = [64]int{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

// unzig maps zigzag position (storage order of DQT) to natural order.
var unzig = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// Reader is result of quality detection.
type Reader interface {
	Quality() int
}

type jpegReader struct {
	rs      io.ReadSeeker
	quality int
}

func (jr *jpegReader) Quality() int {
	return jr.quality
}

// New reads rs from the beginning up to the first luminance quantization
// table.
func New(rs io.ReadSeeker) (Reader, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	jr := &jpegReader{rs: rs}
	if err := jr.scan(); err != nil {
		return nil, err
	}
	return jr, nil
}

func NewWithBytes(data []byte) (Reader, error) {
	return New(bytes.NewReader(data))
}

// readMarker returns 0 when marker could not be read.
func (jr *jpegReader) readMarker() int {
	var buf [2]byte
	if _, err := io.ReadFull(jr.rs, buf[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint16(buf[:]))
}

func (jr *jpegReader) readLength() (int, error) {
	var buf [2]byte
	if _, err := io.ReadFull(jr.rs, buf[:]); err != nil {
		return 0, err
	}
	n := int(binary.BigEndian.Uint16(buf[:]))
	if n < 2 {
		return 0, ErrShortSegment
	}
	return n - 2, nil
}

func (jr *jpegReader) scan() error {
	if jr.readMarker() != markerSOI {
		return ErrInvalidJPEG
	}
	for {
		marker := jr.readMarker()
		switch {
		case marker == 0:
			return io.ErrUnexpectedEOF
		case marker == markerEOI || marker == markerSOS:
			return ErrNoDQT
		case marker >= 0xffd0 && marker <= 0xffd7, marker == 0xff01:
			// markers without payload
			continue
		case marker == markerDQT:
			found, err := jr.readDQT()
			if err != nil {
				return err
			}
			if found {
				return nil
			}
		default:
			n, err := jr.readLength()
			if err != nil {
				return err
			}
			if _, err := jr.rs.Seek(int64(n), io.SeekCurrent); err != nil {
				return err
			}
		}
	}
}

// readDQT processes all tables in the segment, returns true once luminance
// table (id 0) was seen.
func (jr *jpegReader) readDQT() (bool, error) {
	n, err := jr.readLength()
	if err != nil {
		return false, err
	}
	if n < 65 {
		return false, ErrShortDQT
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(jr.rs, data); err != nil {
		return false, err
	}

	found := false
	for len(data) > 0 {
		precision, id := data[0]>>4, data[0]&0x0f
		size := 64
		if precision == 1 {
			size = 128
		}
		if len(data) < 1+size {
			return false, ErrWrongTable
		}
		var table [64]int
		for i := range 64 {
			if precision == 1 {
				table[unzig[i]] = int(binary.BigEndian.Uint16(data[1+2*i:]))
			} else {
				table[unzig[i]] = int(data[1+i])
			}
		}
		if id == 0 && !found {
			jr.quality = estimate(&table)
			found = true
		}
		data = data[1+size:]
	}
	return found, nil
}

// estimate finds quality whose scaled standard table is closest to table.
// Ties go to the higher quality.
func estimate(table *[64]int) int {
	best, bestScore := 100, -1
	for q := 100; q >= 1; q-- {
		scale := 200 - 2*q
		if q < 50 {
			scale = 5000 / q
		}
		score := 0
		for i, v := range luminance {
			expected := min(max((v*scale+50)/100, 1), 255)
			d := expected - table[i]
			if d < 0 {
				d = -d
			}
			score += d
		}
		if bestScore < 0 || score < bestScore {
			best, bestScore = q, score
		}
	}
	return best
}
