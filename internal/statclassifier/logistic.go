package statclassifier

import "math"

// logisticRegression is a binary linear classifier; positive class is Fake
type logisticRegression struct {
	weights []float64
	bias    float64
}

type trainOptions struct {
	epochs       int
	learningRate float64
	l2           float64
}

func defaultTrainOptions() trainOptions {
	return trainOptions{epochs: 400, learningRate: 1.0, l2: 0.01}
}

// fitLogistic runs full-batch gradient descent from a zero start, so the
// same inputs always produce the same model.
func fitLogistic(xs []sparseVector, ys []float64, dims int, opts trainOptions) *logisticRegression {
	m := &logisticRegression{weights: make([]float64, dims)}
	n := float64(len(xs))
	if n == 0 {
		return m
	}

	grad := make([]float64, dims)
	for epoch := 0; epoch < opts.epochs; epoch++ {
		for i := range grad {
			grad[i] = 0
		}
		var gradBias float64
		for i, x := range xs {
			diff := m.probability(x) - ys[i]
			for idx, w := range x {
				grad[idx] += diff * w
			}
			gradBias += diff
		}
		for i := range m.weights {
			m.weights[i] -= opts.learningRate * (grad[i]/n + opts.l2*m.weights[i])
		}
		m.bias -= opts.learningRate * gradBias / n
	}
	return m
}

// probability returns P(Fake | x)
func (m *logisticRegression) probability(x sparseVector) float64 {
	z := m.bias
	for idx, w := range x {
		z += m.weights[idx] * w
	}
	return 1 / (1 + math.Exp(-z))
}
