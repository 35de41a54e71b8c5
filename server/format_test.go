package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qkvdb/qkvdb/engine"
)

func TestFormatResultNoRowsIsDone(t *testing.T) {
	require.Equal(t, "DONE.", formatResult(engine.Result{}))
}

func TestFormatResultEmptyMatrixStillPrintsDone(t *testing.T) {
	require.Equal(t, "()\nDONE.", formatResult(engine.Result{Rows: [][]float32{}}))
}

func TestFormatResultRendersCommaSeparatedRows(t *testing.T) {
	result := engine.Result{Rows: [][]float32{{1, 2}, {3, 4}}}
	require.Equal(t, "([1, 2], [3, 4])\nDONE.", formatResult(result))
}
