package llm

import "github.com/alejandrodnm/salescope/internal/domain"

const routePrompt = `Determine if this is a request to analyze product lifecycle, seasonality, or demand.
Return your response as a JSON object with the following fields:
- request_type: one of ["analyze_product_lifecycle", "analyze_product_seasonality", "analyze_product_demand", "other"]
- confidence_score: number between 0 and 1
- description: cleaned description of the request`

var detailPrompts = map[domain.RequestType]string{
	domain.RequestLifecycle: `Extract details for analyzing product lifecycle.
Return your response as a JSON object with the following fields:
- product_id: string identifier of the product (use spaces, not underscores)
- current_date: current date in ISO 8601 format`,

	domain.RequestSeasonality: `Extract details for analyzing product seasonality.
Return your response as a JSON object with the following fields:
- product_id: string identifier of the product (use spaces, not underscores)
- date: current date in ISO 8601 format`,

	domain.RequestDemand: `Extract details for analyzing product demand.
Return your response as a JSON object with the following fields:
- product_id: string identifier of the product (use spaces, not underscores)
- start_date: start date in ISO 8601 format
- end_date: end date in ISO 8601 format`,
}
