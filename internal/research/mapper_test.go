package research

import (
	"testing"

	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
)

func TestMapper_Map(t *testing.T) {
	kb, err := knowledge.Default()
	if err != nil {
		t.Fatal(err)
	}
	m := NewMapper(kb)

	tests := []struct {
		key      string
		category string
		priority int
	}{
		{"backtesting", "statistical_validation", 5},
		{"walk_forward", "statistical_validation", 5},
		{"momentum_strategy", "market_theory", 4},
		{"diversification", "risk_models", 4},
		{"macd", CategoryGeneral, 4},
		{"portfolio_theory", CategoryGeneral, 5},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			a := m.Map(concept(t, tt.key))
			if a.Category != tt.category || a.Priority != tt.priority {
				t.Errorf("Map(%s) = %+v, want %s/%d", tt.key, a, tt.category, tt.priority)
			}
		})
	}
}

func TestMapper_DescriptionKeyword(t *testing.T) {
	kb, _ := knowledge.Default()
	m := NewMapper(kb)

	c := concept(t, "scalping")
	c.Description = "Operativa muy corta medida por su drawdown"
	if a := m.Map(c); a.Category != "risk_models" {
		t.Errorf("expected risk_models via description keyword, got %+v", a)
	}
}
