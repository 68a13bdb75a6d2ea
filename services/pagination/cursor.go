package pagination

import (
	"fmt"
	"strconv"
	"strings"
)

// Cursor marks where the engine resumes: the Morton code of a segment-pair
// cell and the variant indices inside the cell's i and j segments.
// I and J are both -1 when nothing remains.
type Cursor struct {
	Cell uint64
	I    int
	J    int
	Page int
}

func Start() Cursor {
	return Cursor{Cell: 0, I: -1, J: -1, Page: 0}
}

func Parse(text string) (Cursor, error) {
	tokens := strings.Split(text, ":")
	if len(tokens) != 4 {
		return Cursor{}, fmt.Errorf("Value must be of the form 'cell:i:j:page'.")
	}

	cell, err := strconv.ParseUint(tokens[0], 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("Invalid cell '%s'.", tokens[0])
	}

	ints := make([]int, 3)
	for k, token := range tokens[1:] {
		n, err := strconv.Atoi(token)
		if err != nil || n < -1 {
			return Cursor{}, fmt.Errorf("Invalid cursor component '%s'.", token)
		}
		ints[k] = n
	}
	if ints[2] < 0 {
		return Cursor{}, fmt.Errorf("Invalid page '%s'.", tokens[3])
	}
	// issued cursors set both indices or neither, and only after a first page
	if (ints[0] < 0) != (ints[1] < 0) {
		return Cursor{}, fmt.Errorf("Invalid cursor position '%s:%s'.", tokens[1], tokens[2])
	}
	if ints[0] >= 0 && ints[2] == 0 {
		return Cursor{}, fmt.Errorf("Invalid page '%s'.", tokens[3])
	}

	return Cursor{Cell: cell, I: ints[0], J: ints[1], Page: ints[2]}, nil
}

func (c Cursor) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", c.Cell, c.I, c.J, c.Page)
}

func (c Cursor) HasNext() bool {
	return c.I >= 0 || c.J >= 0
}

// Morton interleaves the bits of two segment indices so that cells close
// on the diagonal stay close in emission order.
func Morton(i uint32, j uint32) uint64 {
	return spread(i) | spread(j)<<1
}

func Demorton(code uint64) (uint32, uint32) {
	return compact(code), compact(code >> 1)
}

func spread(v uint32) uint64 {
	x := uint64(v)
	x = (x | x<<16) & 0x0000FFFF0000FFFF
	x = (x | x<<8) & 0x00FF00FF00FF00FF
	x = (x | x<<4) & 0x0F0F0F0F0F0F0F0F
	x = (x | x<<2) & 0x3333333333333333
	x = (x | x<<1) & 0x5555555555555555
	return x
}

func compact(x uint64) uint32 {
	x &= 0x5555555555555555
	x = (x | x>>1) & 0x3333333333333333
	x = (x | x>>2) & 0x0F0F0F0F0F0F0F0F
	x = (x | x>>4) & 0x00FF00FF00FF00FF
	x = (x | x>>8) & 0x0000FFFF0000FFFF
	x = (x | x>>16) & 0x00000000FFFFFFFF
	return uint32(x)
}
