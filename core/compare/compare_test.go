package compare

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-cost/core/catalog"
	"agent-cost/core/engine"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

func findRule(recs []Recommendation, rule Rule) (Recommendation, bool) {
	for _, r := range recs {
		if r.Rule == rule {
			return r, true
		}
	}
	return Recommendation{}, false
}

func TestVoiceModelTable(t *testing.T) {
	cat := testCatalog(t)
	usage := types.DefaultVoiceUsage()

	table, err := VoiceModels(usage, cat)
	require.NoError(t, err)

	require.Len(t, table.Rows, 4)
	assert.Equal(t, DimensionVoiceModel, table.Dimension)
	selected, ok := table.Selected()
	require.True(t, ok)
	assert.Equal(t, "gpt_4o_realtime", selected.Key)
	assert.Equal(t, "GPT-4o Realtime", selected.Label)

	for _, r := range table.Rows {
		require.NotNil(t, r.UnitCost, r.Key)
		// only the AI line changes between models
		assert.True(t, r.Total.Sub(r.Subtotal).Equal(selected.Total.Sub(selected.Subtotal)), r.Key)
	}
}

func TestReplicaTable(t *testing.T) {
	cat := testCatalog(t)
	usage := types.DefaultVoiceUsage()
	usage.MinReplicas = 2

	table, err := Replicas(usage, cat)
	require.NoError(t, err)

	require.Len(t, table.Rows, len(ReplicaOptions))
	labels := make([]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		labels = append(labels, r.Label)
	}
	assert.Equal(t, []string{
		"Serverless (0 replicas)", "Always-on (1 replica)", "Always-on (2 replicas)", "Always-on (3 replicas)",
	}, labels)

	selected, ok := table.Selected()
	require.True(t, ok)
	assert.Equal(t, "2", selected.Key)

	cheapest, ok := table.Cheapest()
	require.True(t, ok)
	assert.Equal(t, "0", cheapest.Key)

	for i := 2; i < len(table.Rows); i++ {
		assert.True(t, table.Rows[i].Total.GreaterThan(table.Rows[i-1].Total))
	}
}

func TestEmailModelTable(t *testing.T) {
	cat := testCatalog(t)
	table, err := EmailModels(types.DefaultEmailUsage(), cat)
	require.NoError(t, err)

	require.Len(t, table.Rows, 4)
	cheapest, ok := table.Cheapest()
	require.True(t, ok)
	assert.Equal(t, "gpt_4o_mini", cheapest.Key)
	assert.True(t, cheapest.Selected)

	// 3500 input at 0.12 and 500 output at 0.48 per 1M tokens
	assert.True(t, cheapest.UnitCost.Equal(decimal.RequireFromString("0.00066")), cheapest.UnitCost.String())
}

func TestPollingTable(t *testing.T) {
	cat := testCatalog(t)
	usage := types.DefaultEmailUsage()

	table, err := PollingIntervals(usage, cat)
	require.NoError(t, err)

	require.Len(t, table.Rows, len(PollingOptions))
	assert.Equal(t, "Every minute", table.Rows[0].Label)
	assert.Equal(t, "Every 5 minutes", table.Rows[1].Label)
	selected, ok := table.Selected()
	require.True(t, ok)
	assert.Equal(t, "5", selected.Key)

	// LLM cost does not depend on polling
	for _, r := range table.Rows {
		assert.True(t, r.Total.Sub(r.Subtotal).Equal(selected.Total.Sub(selected.Subtotal)), r.Key)
	}
}

func TestTablesRejectInvalidUsage(t *testing.T) {
	cat := testCatalog(t)
	voice := types.DefaultVoiceUsage()
	voice.MinutesPerCall = 0

	_, err := VoiceModels(voice, cat)
	assert.True(t, errors.IsType(err, errors.TypeInput))
	_, err = Replicas(voice, nil)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestReplicaRecommendationSavingsAreExact(t *testing.T) {
	cat := testCatalog(t)
	usage := types.DefaultVoiceUsage()
	usage.MinReplicas = 3

	recs, err := Recommend(&usage, nil, cat, DefaultPolicy())
	require.NoError(t, err)
	rec, ok := findRule(recs, RuleReduceReplicas)
	require.True(t, ok)

	three, err := engine.Voice(usage, cat)
	require.NoError(t, err)
	one := usage
	one.MinReplicas = 1
	reduced, err := engine.Voice(one, cat)
	require.NoError(t, err)

	assert.True(t, rec.MonthlySavings.Equal(three.Total.Sub(reduced.Total)),
		"savings %s, delta %s", rec.MonthlySavings, three.Total.Sub(reduced.Total))
	assert.True(t, rec.MonthlySavings.Equal(decimal.RequireFromString("23.652")))
	assert.Equal(t, "Always-on (1 replica)", rec.Suggested)
}

func TestNoReplicaRecommendationBelowThreshold(t *testing.T) {
	cat := testCatalog(t)
	for _, replicas := range []int{0, 1} {
		usage := types.DefaultVoiceUsage()
		usage.MinReplicas = replicas
		recs, err := Recommend(&usage, nil, cat, DefaultPolicy())
		require.NoError(t, err)
		_, ok := findRule(recs, RuleReduceReplicas)
		assert.False(t, ok, "replicas=%d", replicas)
	}
}

func TestVoiceModelRecommendation(t *testing.T) {
	cat := testCatalog(t)
	usage := types.DefaultVoiceUsage()

	recs, err := Recommend(&usage, nil, cat, DefaultPolicy())
	require.NoError(t, err)
	rec, ok := findRule(recs, RuleCheaperVoiceModel)
	require.True(t, ok)

	assert.Equal(t, "gpt_4o_realtime", rec.Current)
	assert.Equal(t, "gpt_4o_mini_realtime", rec.Suggested)
	// AI cost only: 786.7026 - 193.04985
	assert.True(t, rec.MonthlySavings.Equal(decimal.RequireFromString("593.65275")), rec.MonthlySavings.String())

	usage.Model = types.VoiceModelGPTRealtime
	recs, err = Recommend(&usage, nil, cat, DefaultPolicy())
	require.NoError(t, err)
	_, ok = findRule(recs, RuleCheaperVoiceModel)
	assert.False(t, ok, "gpt_realtime is not the most expensive model")
}

func TestNoVoiceModelRecommendationWithoutCalls(t *testing.T) {
	usage := types.DefaultVoiceUsage()
	usage.CallsPerDay = 0

	recs, err := Recommend(&usage, nil, testCatalog(t), DefaultPolicy())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEmailModelRecommendation(t *testing.T) {
	cat := testCatalog(t)
	usage := types.DefaultEmailUsage()
	usage.Model = types.EmailModelGPT4o

	recs, err := Recommend(nil, &usage, cat, DefaultPolicy())
	require.NoError(t, err)
	rec, ok := findRule(recs, RuleCheaperEmailModel)
	require.True(t, ok)
	assert.Equal(t, "gpt_4o_mini", rec.Suggested)
	// 16.4175 on gpt_4o vs 0.99 on gpt_4o_mini
	assert.True(t, rec.MonthlySavings.Equal(decimal.RequireFromString("15.4275")), rec.MonthlySavings.String())

	// 90 emails per month is below the switch threshold
	usage.EmailsPerDay = 3
	recs, err = Recommend(nil, &usage, cat, DefaultPolicy())
	require.NoError(t, err)
	_, ok = findRule(recs, RuleCheaperEmailModel)
	assert.False(t, ok)
}

func TestPollingRecommendations(t *testing.T) {
	cat := testCatalog(t)
	policy := DefaultPolicy()
	policy.FrequentPollingMinutes = 0.01

	usage := types.DefaultEmailUsage()
	usage.PollingIntervalMinutes = 0.01

	recs, err := Recommend(nil, &usage, cat, policy)
	require.NoError(t, err)

	slower, ok := findRule(recs, RuleSlowerPolling)
	require.True(t, ok)
	// 4.32M checks cost 50.7072; 8640 checks stay in the free tier
	assert.True(t, slower.MonthlySavings.Equal(decimal.RequireFromString("50.7072")), slower.MonthlySavings.String())

	hours, ok := findRule(recs, RuleBusinessHours)
	require.True(t, ok)
	assert.True(t, hours.MonthlySavings.Equal(decimal.RequireFromString("38.312352")), hours.MonthlySavings.String())
	assert.True(t, TotalSavings(recs).Equal(slower.MonthlySavings.Add(hours.MonthlySavings)))
}

func TestPollingRecommendationsFireInsideFreeTier(t *testing.T) {
	cat := testCatalog(t)
	functions := func(u types.EmailUsage) decimal.Decimal {
		b, err := engine.Email(u, cat)
		require.NoError(t, err)
		return b.Subtotal(types.CategoryFunctions)
	}

	// 99 emails a day is 2970 a month, still below the low-volume threshold
	for _, perDay := range []int{1, 10, 50, 99} {
		t.Run(fmt.Sprint(perDay), func(t *testing.T) {
			usage := types.DefaultEmailUsage()
			usage.EmailsPerDay = perDay
			usage.PollingIntervalMinutes = 1

			recs, err := Recommend(nil, &usage, cat, DefaultPolicy())
			require.NoError(t, err)

			slower, ok := findRule(recs, RuleSlowerPolling)
			require.True(t, ok)
			assert.Equal(t, "Every minute", slower.Current)
			assert.Equal(t, "Every 5 minutes", slower.Suggested)
			relaxed := usage
			relaxed.PollingIntervalMinutes = 5
			want := functions(usage).Sub(functions(relaxed))
			assert.True(t, slower.MonthlySavings.Equal(want), slower.MonthlySavings.String())
			// 43200 checks a month stay inside the free tier
			assert.True(t, slower.MonthlySavings.IsZero())

			hours, ok := findRule(recs, RuleBusinessHours)
			require.True(t, ok)
			restricted := usage
			restricted.BusinessHoursOnly = true
			want = functions(usage).Sub(functions(restricted))
			assert.True(t, hours.MonthlySavings.Equal(want), hours.MonthlySavings.String())
		})
	}
}

func TestBusinessHoursRuleNeedsAroundTheClockPolling(t *testing.T) {
	usage := types.DefaultEmailUsage()
	usage.PollingIntervalMinutes = 1
	usage.BusinessHoursOnly = true

	recs, err := Recommend(nil, &usage, testCatalog(t), DefaultPolicy())
	require.NoError(t, err)
	_, ok := findRule(recs, RuleBusinessHours)
	assert.False(t, ok)
	_, ok = findRule(recs, RuleSlowerPolling)
	assert.True(t, ok)
}

func TestHighVolumeSkipsPollingRules(t *testing.T) {
	cat := testCatalog(t)
	policy := DefaultPolicy()
	policy.FrequentPollingMinutes = 0.01

	usage := types.DefaultEmailUsage()
	usage.PollingIntervalMinutes = 0.01
	usage.EmailsPerDay = 100 // 3000 per month

	recs, err := Recommend(nil, &usage, cat, policy)
	require.NoError(t, err)
	_, ok := findRule(recs, RuleSlowerPolling)
	assert.False(t, ok)
	_, ok = findRule(recs, RuleBusinessHours)
	assert.False(t, ok)
}

func TestRecommendationSavings(t *testing.T) {
	cat := testCatalog(t)
	for _, replicas := range []int{0, 1, 2, 3} {
		for _, model := range cat.VoiceModels() {
			voice := types.DefaultVoiceUsage()
			voice.MinReplicas = replicas
			voice.Model = model
			email := types.DefaultEmailUsage()

			recs, err := Recommend(&voice, &email, cat, DefaultPolicy())
			require.NoError(t, err)
			for _, r := range recs {
				switch r.Rule {
				case RuleSlowerPolling, RuleBusinessHours:
					assert.False(t, r.MonthlySavings.IsNegative(), "%s %s", r.Rule, r.MonthlySavings)
				default:
					assert.True(t, r.MonthlySavings.IsPositive(), "%s %s", r.Rule, r.MonthlySavings)
				}
			}
		}
	}
}

func TestRecommendErrors(t *testing.T) {
	cat := testCatalog(t)
	usage := types.DefaultVoiceUsage()

	_, err := Recommend(&usage, nil, nil, DefaultPolicy())
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	bad := DefaultPolicy()
	bad.ReplicaThreshold = 1
	_, err = Recommend(&usage, nil, cat, bad)
	assert.True(t, errors.IsType(err, errors.TypeInput))

	recs, err := Recommend(nil, nil, cat, DefaultPolicy())
	require.NoError(t, err)
	assert.Empty(t, recs)
}
