package ml

import "context"

// MockTextClassifier permite tests sin un servidor de inferencia real.
type MockTextClassifier struct {
	Scores []float64
	Err    error
	Calls  int
	Inputs []string
}

func (m *MockTextClassifier) ClassifyText(_ context.Context, text string) ([]float64, error) {
	m.Calls++
	m.Inputs = append(m.Inputs, text)
	return m.Scores, m.Err
}

// MockImageClassifier devuelve vectores por llamada, en orden.
type MockImageClassifier struct {
	Features [][]float64
	Err      error
	Calls    int
}

func (m *MockImageClassifier) ClassifyImage(_ context.Context, _ []byte) ([]float64, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Features) == 0 {
		return nil, nil
	}
	features := m.Features[(m.Calls-1)%len(m.Features)]
	return features, nil
}
