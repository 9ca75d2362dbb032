// Package crs implements a compressed row storage array: a ragged 2D array
// of variable length dense rows kept in one flat buffer.
//
// Row i occupies data[rowOffsets[i]:rowOffsets[i+1]]. There is no column
// index; each row is simply a dense vector. Rows are append-only.
package crs

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/formc/utils"
)

// Number is the set of element types an Array can hold
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Array is an array of variable length dense arrays
type Array[T Number] struct {
	rowOffsets offsets
	data       []T
	numRows    int
}

// New preallocates an Array for rowCapacity rows holding at most
// elementCapacity values in total. Row offsets are stored in the narrowest
// integer type able to index elementCapacity.
func New[T Number](rowCapacity, elementCapacity int) *Array[T] {
	if rowCapacity < 0 || elementCapacity < 0 {
		panic(fmt.Sprintf("crs: negative capacity (rows=%d, elements=%d)",
			rowCapacity, elementCapacity))
	}
	return &Array[T]{
		rowOffsets: newOffsets(rowCapacity+1, elementCapacity),
		data:       make([]T, elementCapacity),
	}
}

// FromRows builds an Array holding exactly the given rows
func FromRows[T Number](rows [][]T) (*Array[T], error) {
	numElements := 0
	for _, row := range rows {
		numElements += len(row)
	}
	a := New[T](len(rows), numElements)
	for i, row := range rows {
		if err := a.PushRow(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return a, nil
}

// PushRow appends one row. It fails without modifying the array when the
// row capacity or the element capacity would be exceeded.
func (a *Array[T]) PushRow(elements []T) error {
	if a.numRows >= a.RowCapacity() {
		return fmt.Errorf("push of row %d exceeds row capacity %d: %w",
			a.numRows, a.RowCapacity(), utils.ErrRange)
	}
	start := a.rowOffsets.at(a.numRows)
	end := start + len(elements)
	if end > len(a.data) {
		return fmt.Errorf("push of %d elements at offset %d exceeds element capacity %d: %w",
			len(elements), start, len(a.data), utils.ErrRange)
	}
	copy(a.data[start:end], elements)
	a.numRows++
	a.rowOffsets.set(a.numRows, end)
	return nil
}

// Row returns a view of row i. The view must not be modified.
func (a *Array[T]) Row(i int) ([]T, error) {
	if i < 0 || i >= a.numRows {
		return nil, fmt.Errorf("row %d not in [0, %d): %w", i, a.numRows, utils.ErrRange)
	}
	start, end := a.rowOffsets.at(i), a.rowOffsets.at(i+1)
	return a.data[start:end:end], nil
}

// RowLen returns the length of row i
func (a *Array[T]) RowLen(i int) (int, error) {
	if i < 0 || i >= a.numRows {
		return 0, fmt.Errorf("row %d not in [0, %d): %w", i, a.numRows, utils.ErrRange)
	}
	return a.rowOffsets.at(i+1) - a.rowOffsets.at(i), nil
}

// NumRows returns the number of committed rows
func (a *Array[T]) NumRows() int { return a.numRows }

// NumElements returns the number of values stored in committed rows
func (a *Array[T]) NumElements() int { return a.rowOffsets.at(a.numRows) }

// RowCapacity returns the maximum number of rows
func (a *Array[T]) RowCapacity() int { return a.rowOffsets.len() - 1 }

// ElementCapacity returns the maximum number of values
func (a *Array[T]) ElementCapacity() int { return len(a.data) }

// OffsetBits returns the bit width used to store row offsets
func (a *Array[T]) OffsetBits() int { return a.rowOffsets.bits() }

// RowOffsets returns a copy of the committed offsets, length NumRows()+1
func (a *Array[T]) RowOffsets() []int {
	out := make([]int, a.numRows+1)
	for i := range out {
		out[i] = a.rowOffsets.at(i)
	}
	return out
}

func (a *Array[T]) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < a.numRows; i++ {
		if i > 0 {
			sb.WriteString("\n")
		}
		row, _ := a.Row(i)
		sb.WriteString(fmt.Sprintf("%v", row))
	}
	sb.WriteString("]")
	return sb.String()
}

// offsets hides the integer width chosen for the row offset table
type offsets interface {
	at(i int) int
	set(i, v int)
	len() int
	bits() int
}

type offsetTable[I int16 | int32 | int64] []I

func (o offsetTable[I]) at(i int) int { return int(o[i]) }
func (o offsetTable[I]) set(i, v int) { o[i] = I(v) }
func (o offsetTable[I]) len() int     { return len(o) }
func (o offsetTable[I]) bits() int {
	var v I
	switch any(v).(type) {
	case int16:
		return 16
	case int32:
		return 32
	}
	return 64
}

func newOffsets(n, maxValue int) offsets {
	switch {
	case maxValue <= math.MaxInt16:
		return make(offsetTable[int16], n)
	case maxValue <= math.MaxInt32:
		return make(offsetTable[int32], n)
	}
	return make(offsetTable[int64], n)
}
