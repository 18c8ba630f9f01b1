package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealerworks/reconcile-cli/internal/model"
)

func TestHash_Stable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Hash("li-1"), Hash("li-1"))
	assert.Equal(t, int('a')+int('b'), Hash("ab"))
	assert.Equal(t, Hash("ab"), Hash("ba"), "hash is a character sum, order-independent")
	assert.Equal(t, 0, Hash(""))
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	li := model.LineItem{ID: "li-7", SKU: "CHR-2210", UnitPrice: 100, Status: model.StatusReview}

	first := g.Generate(li)
	second := g.Generate(li)
	assert.Equal(t, first, second)
}

func TestGenerate_Fields(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	li := model.LineItem{ID: "li-7", SKU: "CHR-2210", UnitPrice: 100, Status: model.StatusReview}
	sug := g.Generate(li)

	h := Hash("li-7")
	p := defaultPolicies[h%len(defaultPolicies)]

	assert.Equal(t, "CHR-2210"+p.skuSuffix, sug.SKU)
	assert.InDelta(t, 100*p.priceMul, sug.Price, 0.01)
	assert.Equal(t, p.reason, sug.Reason)
	assert.Equal(t, 85+h%10, sug.Confidence)
}

func TestGenerate_ConfidenceRange(t *testing.T) {
	t.Parallel()
	g := NewGenerator()

	ids := []string{"a", "li-1", "li-2", "li-99", "asset-4412", "x7f3"}
	for _, id := range ids {
		sug := g.Generate(model.LineItem{ID: id, SKU: "SKU-1", UnitPrice: 50})
		assert.GreaterOrEqual(t, sug.Confidence, 85, "id %s", id)
		assert.LessOrEqual(t, sug.Confidence, 94, "id %s", id)
	}
}
