package providers

// Pricing holds per-token rates in USD per million tokens.
type Pricing struct {
	InputPerMillion  float64 `mapstructure:"input_per_million" yaml:"input_per_million" json:"input_per_million"`
	OutputPerMillion float64 `mapstructure:"output_per_million" yaml:"output_per_million" json:"output_per_million"`
}

// DefaultModel is the model used when none is configured.
const DefaultModel = "gpt-5-mini"

// ModelPrices are published rates for known models. These are estimates,
// not a billing source of truth.
var ModelPrices = map[string]Pricing{
	"gpt-5-mini": {InputPerMillion: 0.075, OutputPerMillion: 0.30},
}

// Cost estimates the USD cost of a call.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*p.InputPerMillion/1_000_000 +
		float64(outputTokens)*p.OutputPerMillion/1_000_000
}

// IsZero reports whether no rates are set.
func (p Pricing) IsZero() bool {
	return p.InputPerMillion == 0 && p.OutputPerMillion == 0
}

// PricingFor returns the rates for model. An explicit override wins, then
// the known table, then the default model's rates.
func PricingFor(model string, override Pricing) Pricing {
	if !override.IsZero() {
		return override
	}
	if p, ok := ModelPrices[model]; ok {
		return p
	}
	return ModelPrices[DefaultModel]
}
