package engine

import (
	"fmt"
	"testing"

	"ldserver/api/services/pagination"

	"github.com/stretchr/testify/assert"
)

func TestResultSink(t *testing.T) {
	sink := NewResultSink(2, pagination.Start())
	assert.False(t, sink.Full())

	sink.Pairs = append(sink.Pairs, Pair{}, Pair{})
	assert.True(t, sink.Full())

	sink.Suspend(9, 1, 2)
	assert.Equal(t, pagination.Cursor{Cell: 9, I: 1, J: 2, Page: 1}, sink.Cursor)
	assert.True(t, sink.Cursor.HasNext())

	sink.Finish()
	assert.False(t, sink.Cursor.HasNext())
	assert.Equal(t, 2, sink.Cursor.Page)

	assert.False(t, NewResultSink(0, pagination.Start()).Full())
}

func TestSegmentsDecodeOnce(t *testing.T) {
	segments := NewSegments("1:22", 1000)
	calls := 0
	decode := func() interface{} {
		calls++
		return calls
	}

	assert.Equal(t, 1, segments.Load("22", 51241, decode))
	assert.Equal(t, 1, segments.Load("22", 51241, decode))
	assert.Equal(t, 2, segments.Load("22", 51242, decode))
	assert.Equal(t, 2, segments.Decoded())
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(fmt.Errorf("chrom 21: %w", ErrChromosomeNotFound)))
	assert.True(t, IsRecoverable(ErrNoVariants))
	assert.False(t, IsRecoverable(fmt.Errorf("decode failed")))
}
