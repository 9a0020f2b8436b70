package metrics2

import "strings"

// pricePerMillion is USD per 1M tokens, input/output.
type pricePerMillion struct {
	Input  float64
	Output float64
}

// modelPricing is transcribed from MODEL_PRICING in app/core/metrics.py.
var modelPricing = map[string]pricePerMillion{
	// OpenAI
	"gpt-4o":        {Input: 2.50, Output: 10.00},
	"gpt-4o-mini":   {Input: 0.15, Output: 0.60},
	"gpt-4-turbo":   {Input: 10.00, Output: 30.00},
	"gpt-4":         {Input: 30.00, Output: 60.00},
	"gpt-3.5-turbo": {Input: 0.50, Output: 1.50},

	// Anthropic Claude 4.5
	"claude-opus-4-5-20251101":   {Input: 5.00, Output: 25.00},
	"claude-opus-4-5":            {Input: 5.00, Output: 25.00},
	"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
	"claude-sonnet-4-5":          {Input: 3.00, Output: 15.00},
	"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},
	"claude-haiku-4-5":           {Input: 1.00, Output: 5.00},

	// Anthropic Claude 4.x
	"claude-opus-4-1-20250805": {Input: 15.00, Output: 75.00},
	"claude-opus-4-0":          {Input: 15.00, Output: 75.00},
	"claude-opus-4-20250514":   {Input: 15.00, Output: 75.00},
	"claude-sonnet-4-0":        {Input: 3.00, Output: 15.00},
	"claude-sonnet-4-20250514": {Input: 3.00, Output: 15.00},

	// Anthropic Claude 3.7
	"claude-3-7-sonnet-20250219": {Input: 3.00, Output: 15.00},
	"claude-3-7-sonnet-latest":   {Input: 3.00, Output: 15.00},

	// Anthropic Claude 3.5
	"claude-3-5-sonnet-20241022": {Input: 3.00, Output: 15.00},
	"claude-3-5-haiku-20241022":  {Input: 0.80, Output: 4.00},
	"claude-3-5-haiku-latest":    {Input: 0.80, Output: 4.00},

	// Anthropic Claude 3 (legacy)
	"claude-3-opus-20240229":   {Input: 15.00, Output: 75.00},
	"claude-3-opus-latest":     {Input: 15.00, Output: 75.00},
	"claude-3-sonnet-20240229": {Input: 3.00, Output: 15.00},
	"claude-3-haiku-20240307":  {Input: 0.25, Output: 1.25},

	// Google
	"gemini-2.0-flash-exp": {Input: 0.00, Output: 0.00},
	"gemini-1.5-pro":       {Input: 1.25, Output: 5.00},
	"gemini-1.5-flash":     {Input: 0.075, Output: 0.30},

	// AWS Bedrock
	"anthropic.claude-3-5-sonnet-20241022-v2:0": {Input: 3.00, Output: 15.00},
	"anthropic.claude-3-5-haiku-20241022-v1:0":  {Input: 0.80, Output: 4.00},
}

var providerPrefixes = []string{"openai/", "anthropic/", "google/", "bedrock/", "azure/"}

// EstimateCost looks up modelID's per-token pricing (after stripping a
// provider-name prefix, if any) and returns the estimated USD cost of
// input/output token counts. The second return value is false when no
// pricing entry exists, distinguishing "free model" from "unknown
// model" the way the original's Optional[float] return does.
func EstimateCost(modelID string, inputTokens, outputTokens int) (float64, bool) {
	normalized := modelID
	for _, prefix := range providerPrefixes {
		if strings.HasPrefix(modelID, prefix) {
			normalized = strings.TrimPrefix(modelID, prefix)
			break
		}
	}

	price, ok := modelPricing[normalized]
	if !ok {
		return 0, false
	}

	inputCost := (float64(inputTokens) / 1_000_000) * price.Input
	outputCost := (float64(outputTokens) / 1_000_000) * price.Output
	return inputCost + outputCost, true
}
