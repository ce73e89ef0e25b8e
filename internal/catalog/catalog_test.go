// ABOUTME: Tests for the product catalog and prompt assembly.
// ABOUTME: Validates the /products rendering and the bounded message list.

package catalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peptiva/storefront-gateway/internal/llm"
)

func TestProductList_EveryProductOnceGroupedByCategory(t *testing.T) {
	list := ProductList()

	for _, p := range Products() {
		assert.Equal(t, 1, strings.Count(list, p.Name), "product %q should appear exactly once", p.Name)
	}

	// Categories appear in display order, each before its products.
	lastIdx := -1
	for _, cat := range categories {
		idx := strings.Index(list, cat)
		require.GreaterOrEqual(t, idx, 0, "category %q missing", cat)
		assert.Greater(t, idx, lastIdx, "category %q out of order", cat)
		lastIdx = idx
	}
}

func TestProductList_IncludesPricesAndPurity(t *testing.T) {
	list := ProductList()

	assert.Contains(t, list, "$44.99")
	assert.Contains(t, list, ">99%")
	assert.Contains(t, list, "research use only")
}

func TestFind(t *testing.T) {
	p, v, ok := Find("BPC-157", "5mg")
	require.True(t, ok)
	assert.Equal(t, "Recovery & Repair", p.Category)
	assert.Equal(t, int64(4499), v.PriceCents)

	_, _, ok = Find("BPC-157", "50mg")
	assert.False(t, ok)

	_, _, ok = Find("Not A Product", "5mg")
	assert.False(t, ok)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$44.99", FormatPrice(4499))
	assert.Equal(t, "$129.00", FormatPrice(12900))
	assert.Equal(t, "$0.05", FormatPrice(5))
}

func TestSystemPrompt_EmbedsCatalogAndPolicy(t *testing.T) {
	prompt := SystemPrompt()

	for _, p := range Products() {
		assert.Contains(t, prompt, p.Name)
	}
	assert.Contains(t, prompt, "research use")
	assert.Contains(t, prompt, "medical advice")
	assert.Contains(t, prompt, "Never invent products")
}

func TestBuildMessages_Shape(t *testing.T) {
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "do you have BPC-157?"},
		{Role: llm.RoleAssistant, Content: "Yes, in 5mg and 10mg vials."},
	}

	msgs := BuildMessages(history, "what does the 10mg cost?", 20)

	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, SystemPrompt(), msgs[0].Content)
	assert.Equal(t, history[0], msgs[1])
	assert.Equal(t, history[1], msgs[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "what does the 10mg cost?"}, msgs[3])
}

func TestBuildMessages_TruncatesHistoryToBound(t *testing.T) {
	history := make([]llm.Message, 0, 30)
	for i := 0; i < 30; i++ {
		history = append(history, llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}

	msgs := BuildMessages(history, "latest question", 20)

	require.Len(t, msgs, 20)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	// The oldest history is dropped; the newest survives in order.
	assert.Equal(t, "turn 12", msgs[1].Content)
	assert.Equal(t, "turn 29", msgs[18].Content)
	assert.Equal(t, "latest question", msgs[19].Content)
}

func TestBuildMessages_EmptyHistory(t *testing.T) {
	msgs := BuildMessages(nil, "first contact", 20)

	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, "first contact", msgs[1].Content)
}

func TestBuildMessages_IsPure(t *testing.T) {
	history := []llm.Message{{Role: llm.RoleUser, Content: "hello"}}

	a := BuildMessages(history, "q", 20)
	b := BuildMessages(history, "q", 20)

	assert.Equal(t, a, b)
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "hello"}}, history)
}
