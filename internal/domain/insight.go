package domain

import (
	"encoding/json"
	"fmt"
)

// Insight is one AI-generated analysis of a store's feedback.
type Insight struct {
	StoreID         int64    `json:"tienda_id"`
	AnalyzedAt      string   `json:"fecha_analisis"`
	Alerts          []string `json:"alertas"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recomendaciones"`
	Priority        string   `json:"prioridad"`
}

// InsightBatch is a decoded insights response and the strategy that decoded it.
type InsightBatch struct {
	Insights []Insight
	Strategy string
}

// Insight decode strategy names.
const (
	StrategyWrapper  = "wrapper"
	StrategyArray    = "array"
	StrategyFlexible = "flexible"
)

var insightRequiredKeys = []string{"tienda_id", "fecha_analisis", "alertas", "insights", "recomendaciones", "prioridad"}

// InsightStrategies is the ordered decode chain for insights responses:
//
//  1. wrapper:  {success, count?, data: [insight], error?} with success == true
//  2. array:    a bare [insight]
//  3. flexible: {success, data?} with success == true; data and item fields optional
//
// Strategies 1 and 2 require every insight field to be present.
var InsightStrategies = []Strategy[[]Insight]{
	{Name: StrategyWrapper, Decode: decodeInsightWrapper},
	{Name: StrategyArray, Decode: decodeInsightArray},
	{Name: StrategyFlexible, Decode: decodeInsightFlexible},
}

// DecodeInsightsResponse decodes an insights body with InsightStrategies.
func DecodeInsightsResponse(body []byte) ([]Insight, error) {
	batch, err := DecodeInsights(body)
	if err != nil {
		return nil, err
	}
	return batch.Insights, nil
}

// DecodeInsights is DecodeInsightsResponse that also reports which strategy
// succeeded.
func DecodeInsights(body []byte) (InsightBatch, error) {
	insights, strategy, err := RunStrategies(body, InsightStrategies)
	if err != nil {
		return InsightBatch{}, err
	}
	return InsightBatch{Insights: insights, Strategy: strategy}, nil
}

type insightWrapper struct {
	Success bool              `json:"success"`
	Count   *int              `json:"count"`
	Data    []json.RawMessage `json:"data"`
	Error   *string           `json:"error"`
}

func decodeInsightWrapper(body []byte) ([]Insight, *DecodeFailure) {
	var w insightWrapper
	if f := decodeObject(body, []string{"success", "data"}, &w); f != nil {
		return nil, f
	}
	if !w.Success {
		return nil, unsuccessful(w.Error)
	}
	return decodeInsightItems(w.Data, insightRequiredKeys)
}

func decodeInsightArray(body []byte) ([]Insight, *DecodeFailure) {
	elems, f := decodeArray(body)
	if f != nil {
		return nil, f
	}
	return decodeInsightItems(elems, insightRequiredKeys)
}

type flexibleWrapper struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

func decodeInsightFlexible(body []byte) ([]Insight, *DecodeFailure) {
	var w flexibleWrapper
	if f := decodeObject(body, []string{"success"}, &w); f != nil {
		return nil, f
	}
	if !w.Success {
		return nil, unsuccessful(w.Error)
	}
	if len(w.Data) == 0 || isNull(w.Data) {
		return []Insight{}, nil
	}
	elems, f := decodeArray(w.Data)
	if f != nil {
		f.Detail = "data: " + f.Detail
		return nil, f
	}
	return decodeInsightItems(elems, nil)
}

func decodeInsightItems(elems []json.RawMessage, required []string) ([]Insight, *DecodeFailure) {
	out := make([]Insight, 0, len(elems))
	for i, raw := range elems {
		var in Insight
		if f := decodeObject(raw, required, &in); f != nil {
			f.Detail = fmt.Sprintf("data[%d]: %s", i, f.Detail)
			return nil, f
		}
		out = append(out, in)
	}
	return out, nil
}

func unsuccessful(msg *string) *DecodeFailure {
	detail := "success is false"
	if msg != nil && *msg != "" {
		detail += ": " + *msg
	}
	return &DecodeFailure{Kind: FailureUnsuccessful, Detail: detail}
}
