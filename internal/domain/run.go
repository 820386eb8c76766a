package domain

import "time"

// RunMetrics describe una única llamada de análisis. Se crea un valor nuevo por
// llamada y se devuelve con el resultado; nunca se comparte entre llamadas.
type RunMetrics struct {
	StartedAt       time.Time     `json:"started_at"`
	ComputationTime time.Duration `json:"-"`
	Success         bool          `json:"success"`
	Error           string        `json:"error,omitempty"`
}

// StartRun abre las métricas de una llamada iniciada en now.
func StartRun(now time.Time) RunMetrics {
	return RunMetrics{StartedAt: now}
}

// Complete cierra las métricas en now. Success es false si err no es nil.
func (m *RunMetrics) Complete(now time.Time, success bool, err error) {
	m.ComputationTime = now.Sub(m.StartedAt)
	m.Success = success && err == nil
	if err != nil {
		m.Error = err.Error()
	}
}

// Seconds devuelve el tiempo de cómputo en segundos.
func (m RunMetrics) Seconds() float64 {
	return m.ComputationTime.Seconds()
}

// RunRecord es la traza persistida de una llamada de análisis. Los resultados
// no se guardan nunca.
type RunRecord struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	ProductID string        `json:"product_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Found     bool          `json:"found"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}
