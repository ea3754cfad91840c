package models

// Requests for the analysis HTTP endpoints. Defined in domain for consistency and reuse.

type RunAnalysisRequest struct {
	TopN int `query:"top_n" json:"top_n" default:"50" validate:"gte=1,lte=500"`
}

type SymbolRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,min=2,max=10"`
}

type StrategyRequest struct {
	Name string `param:"name" json:"name" validate:"required,oneof=investing trading speculation"`
}
