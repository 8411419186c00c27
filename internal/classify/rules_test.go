package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/workflow-cli/internal/model"
)

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ticket     model.Ticket
		category   model.Category
		product    model.ProductCategory
		confidence float64
	}{
		{
			name:       "named hardware product",
			ticket:     model.Ticket{Subject: "Switch restarts", Description: "Hirschmann switch model X reboots every 2h"},
			category:   model.CategoryProductComplaint,
			product:    model.ProductSwitches,
			confidence: RuleConfidence,
		},
		{
			name:       "password reset",
			ticket:     model.Ticket{Subject: "Password reset", Description: "I need a password reset for the partner portal"},
			category:   model.CategoryITSupport,
			product:    model.ProductNone,
			confidence: RuleConfidence,
		},
		{
			name:       "portal access",
			ticket:     model.Ticket{Subject: "Portal access", Description: "Cannot get portal access since Monday"},
			category:   model.CategoryITSupport,
			product:    model.ProductNone,
			confidence: RuleConfidence,
		},
		{
			name:       "cables",
			ticket:     model.Ticket{Subject: "Fiber patch cord damaged", Description: "The fiber cable arrived damaged"},
			category:   model.CategoryProductComplaint,
			product:    model.ProductCables,
			confidence: RuleConfidence,
		},
		{
			name:       "defect without category",
			ticket:     model.Ticket{Subject: "Order arrived defective"},
			category:   model.CategoryProductComplaint,
			product:    model.ProductGeneral,
			confidence: RuleConfidence,
		},
		{
			name:       "it tie goes to product",
			ticket:     model.Ticket{Subject: "Firmware download needs login"},
			category:   model.CategoryProductComplaint,
			product:    model.ProductSoftware,
			confidence: RuleConfidence,
		},
		{
			name:     "nothing matched",
			ticket:   model.Ticket{Subject: "Hello", Description: "Please call me back"},
			category: model.CategoryGeneral,
			product:  model.ProductGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Rules(tt.ticket)
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.product, c.ProductCategory)
			assert.Equal(t, tt.confidence, c.Confidence)
			assert.Equal(t, model.SourceRules, c.Source)
			assert.Equal(t, c.Category, c.RuleCategory)
			assert.NotEmpty(t, c.Reasoning)
		})
	}
}

func TestRules_Attributes(t *testing.T) {
	t.Parallel()

	c := Rules(model.Ticket{
		Subject:     "Production down again",
		Description: "Unacceptable: the Hirschmann switch failed again",
	})
	assert.Equal(t, "critical", c.Urgency)
	assert.Equal(t, "angry", c.Sentiment)
	assert.Equal(t, "Hirschmann", c.ProductName)
	assert.Equal(t, "Production down again", c.Summary)

	c = Rules(model.Ticket{Subject: "Question about cable lengths", Priority: "High"})
	assert.Equal(t, "low", c.Urgency)
	assert.Equal(t, "neutral", c.Sentiment)

	c = Rules(model.Ticket{Subject: "Cable order", Priority: "Critical"})
	assert.Equal(t, "critical", c.Urgency)

	c = Rules(model.Ticket{Subject: "Cable order", Priority: "High"})
	assert.Equal(t, "high", c.Urgency)
}
