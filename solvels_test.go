// Copyright (c) 2026 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.28
//

package goins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestSolveLSExact(t *testing.T) {
	// Square well-posed system: the weighted solution is the exact one
	G := mat.NewDense(2, 2, []float64{2, 0, 0, 4})
	dr := mat.NewVecDense(2, []float64{6, 8})
	W := mat.NewDiagDense(2, []float64{1, 1})

	dx, cov, err := SolveLS(G, dr, W)
	assert.NoError(t, err)
	assert.InDelta(t, 3.0, dx.AtVec(0), 1e-12)
	assert.InDelta(t, 2.0, dx.AtVec(1), 1e-12)

	// cov = (G^T W G)^-1
	assert.InDelta(t, 0.25, cov.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0/16.0, cov.At(1, 1), 1e-12)
}

func TestSolveLSOverdetermined(t *testing.T) {
	// Three observations of a scalar, unequal weights: the estimate is the
	// weighted mean
	G := mat.NewDense(3, 1, []float64{1, 1, 1})
	dr := mat.NewVecDense(3, []float64{1, 2, 4})
	W := mat.NewDiagDense(3, []float64{1, 1, 2})

	dx, cov, err := SolveLS(G, dr, W)
	assert.NoError(t, err)
	assert.InDelta(t, (1.0+2.0+8.0)/4.0, dx.AtVec(0), 1e-12)
	assert.InDelta(t, 0.25, cov.At(0, 0), 1e-12)
}

func TestSolveLSRankDeficient(t *testing.T) {
	// Two identical columns: normal equations are singular
	G := mat.NewDense(3, 2, []float64{1, 1, 1, 1, 1, 1})
	dr := mat.NewVecDense(3, []float64{1, 2, 3})
	W := mat.NewDiagDense(3, []float64{1, 1, 1})

	_, _, err := SolveLS(G, dr, W)
	assert.Error(t, err)
}

func TestSolveLSDimMismatch(t *testing.T) {
	G := mat.NewDense(3, 2, nil)
	dr := mat.NewVecDense(3, nil)

	_, _, err := SolveLS(G, dr, mat.NewDiagDense(2, []float64{1, 1}))
	assert.Error(t, err)

	_, _, err = SolveLS(G, mat.NewVecDense(2, nil), mat.NewDiagDense(3, []float64{1, 1, 1}))
	assert.Error(t, err)
}
