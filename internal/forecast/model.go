package forecast

import (
	"errors"
	"math"
)

var (
	// ErrInvalidLambda is returned when the ridge penalty is not a positive number.
	ErrInvalidLambda = errors.New("ridge lambda must be positive")
	// ErrSingularSystem is returned when the normal equations cannot be solved.
	ErrSingularSystem = errors.New("normal equations are singular")
)

const pivotEpsilon = 1e-12

// Model is a fitted ridge regression. Features are centered before fitting
// so the intercept carries no penalty.
type Model struct {
	Intercept    float64
	Coefficients []float64
}

// Predict evaluates the model at x.
func (m *Model) Predict(x []float64) float64 {
	y := m.Intercept
	for j, w := range m.Coefficients {
		y += w * x[j]
	}
	return y
}

// FitRidge solves (XᵀX + λI)w = Xᵀy on centered data.
func FitRidge(x [][]float64, y []float64, lambda float64) (*Model, error) {
	if !(lambda > 0) || math.IsInf(lambda, 1) {
		return nil, ErrInvalidLambda
	}
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, errors.New("ridge fit needs one target per sample")
	}
	p := len(x[0])

	xMean := make([]float64, p)
	var yMean float64
	for i := range x {
		if len(x[i]) != p {
			return nil, errors.New("ridge fit needs samples of equal width")
		}
		for j := 0; j < p; j++ {
			xMean[j] += x[i][j]
		}
		yMean += y[i]
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	yMean /= float64(n)

	a := make([][]float64, p)
	for j := range a {
		a[j] = make([]float64, p)
		a[j][j] = lambda
	}
	b := make([]float64, p)
	for i := range x {
		yc := y[i] - yMean
		for j := 0; j < p; j++ {
			xj := x[i][j] - xMean[j]
			b[j] += xj * yc
			for k := 0; k < p; k++ {
				a[j][k] += xj * (x[i][k] - xMean[k])
			}
		}
	}

	w, err := solve(a, b)
	if err != nil {
		return nil, err
	}

	intercept := yMean
	for j := range w {
		intercept -= w[j] * xMean[j]
	}
	return &Model{Intercept: intercept, Coefficients: w}, nil
}

// solve runs Gaussian elimination with partial pivoting. a and b are
// modified in place.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < pivotEpsilon || math.IsNaN(a[pivot][col]) {
			return nil, ErrSingularSystem
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	w := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * w[k]
		}
		w[row] = sum / a[row][row]
	}
	return w, nil
}

// features maps a month to [t, sin(2πm/12), cos(2πm/12)] where t counts
// calendar months since the first training month and m is the calendar
// month number.
func features(t int, calendarMonth int) []float64 {
	angle := 2 * math.Pi * float64(calendarMonth) / 12
	return []float64{float64(t), math.Sin(angle), math.Cos(angle)}
}
