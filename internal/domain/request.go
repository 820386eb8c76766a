package domain

// RequestType es la clasificación del router para una request del usuario.
type RequestType string

const (
	RequestLifecycle   RequestType = "analyze_product_lifecycle"
	RequestSeasonality RequestType = "analyze_product_seasonality"
	RequestDemand      RequestType = "analyze_product_demand"
	RequestOther       RequestType = "other"
)

// Valid indica si t es uno de los tipos de request conocidos.
func (t RequestType) Valid() bool {
	switch t {
	case RequestLifecycle, RequestSeasonality, RequestDemand, RequestOther:
		return true
	}
	return false
}

// RouteDecision es la respuesta del router para una request.
type RouteDecision struct {
	RequestType     RequestType `json:"request_type"`
	ConfidenceScore float64     `json:"confidence_score"`
	Description     string      `json:"description"`
}

// RequestDetails son los campos extraídos de una descripción enrutada. Solo
// se rellenan las fechas relevantes para el tipo de request.
type RequestDetails struct {
	ProductID   string `json:"product_id"`
	CurrentDate string `json:"current_date,omitempty"`
	Date        string `json:"date,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// ResponseMetrics es el subconjunto público de RunMetrics.
type ResponseMetrics struct {
	ComputationTime float64 `json:"computation_time"` // segundos
	Success         bool    `json:"success"`
}

// AnalysisData lleva el resultado de un analizador con las métricas de la llamada.
type AnalysisData struct {
	Result  any             `json:"result"`
	Metrics ResponseMetrics `json:"metrics"`
}

// Response es la respuesta al usuario para una request.
type Response struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	AnalysisData *AnalysisData `json:"analysis_data"`
}
