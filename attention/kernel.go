// Package attention implements the cross-attention reduction kernel that
// answers a SCAN: a softmax-weighted combination of every (key, value) pair
// stored in a bucket against a batch of query vectors, folded block by
// block over the bucket's streaming iterator.
package attention

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/qkvdb/qkvdb/storage"
)

// Reduce runs the cross-attention kernel for query matrix q (Nq rows of
// width D) against every row stored in bucket, streamed in blocks of at
// most batchRows rows, and returns the Nq x D result matrix.
//
// The per-block update is
//
//	S       = softmax_along_Nq_axis(exp(Q * K^T))   // shape (Nq, Nk)
//	R_block = S * V                                 // shape (Nq, D)
//	R_new   = R_block + R_old / D
//
// Both the softmax axis and the accumulator blend reproduce the upstream
// behavior exactly; see DESIGN.md for why these are kept rather than
// "corrected" to the textbook forms.
func Reduce(q [][]float32, vecSize uint32, bucket *storage.Bucket, batchRows int) ([][]float32, error) {
	nq := len(q)
	d := int(vecSize)
	if nq == 0 {
		return nil, nil
	}

	Q := rowsToDense(q, d)
	R := mat.NewDense(nq, d, nil)

	foldErr := bucket.ReduceBatched(batchRows, R, func(acc any, keys, values []float32) {
		r := acc.(*mat.Dense)
		nk := len(keys) / d
		if nk == 0 {
			return
		}
		K := mat.NewDense(nk, d, toFloat64(keys))
		V := mat.NewDense(nk, d, toFloat64(values))

		scores := mat.NewDense(nq, nk, nil)
		scores.Mul(Q, K.T())
		scores.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, scores)

		colSums := make([]float64, nk)
		for j := 0; j < nk; j++ {
			sum := 0.0
			for i := 0; i < nq; i++ {
				sum += scores.At(i, j)
			}
			colSums[j] = sum
		}
		scores.Apply(func(_, j int, v float64) float64 { return v / colSums[j] }, scores)

		block := mat.NewDense(nq, d, nil)
		block.Mul(scores, V)

		block.Apply(func(i, j int, v float64) float64 {
			return v + r.At(i, j)/float64(d)
		}, block)
		r.Copy(block)
	})
	if foldErr != nil {
		return nil, fmt.Errorf("folding attention blocks: %w", foldErr)
	}

	return denseToRows(R), nil
}

func rowsToDense(rows [][]float32, d int) *mat.Dense {
	flat := make([]float64, len(rows)*d)
	for i, row := range rows {
		for j, v := range row {
			flat[i*d+j] = float64(v)
		}
	}
	return mat.NewDense(len(rows), d, flat)
}

func toFloat64(vs []float32) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}

func denseToRows(m *mat.Dense) [][]float32 {
	nq, d := m.Dims()
	rows := make([][]float32, nq)
	for i := 0; i < nq; i++ {
		row := make([]float32, d)
		for j := 0; j < d; j++ {
			row[j] = float32(m.At(i, j))
		}
		rows[i] = row
	}
	return rows
}
