package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-cost/core/catalog"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	w := decimal.RequireFromString(want)
	assert.True(t, w.Equal(got), append([]interface{}{"want %s, got %s", w, got}, msgAndArgs...)...)
}

func assertSumInvariant(t *testing.T, b *types.CostBreakdown) {
	t.Helper()
	assert.True(t, b.Total.Equal(b.SumComponents()), "total %s != sum of components %s", b.Total, b.SumComponents())
	for _, c := range b.Components {
		assert.False(t, c.Amount.IsNegative(), "component %s is negative: %s", c.Name, c.Amount)
	}
}

func TestVoiceConcreteScenario(t *testing.T) {
	cat := testCatalog(t)
	usage := types.VoiceUsage{
		MinutesPerCall: 5,
		CallsPerDay:    50,
		Model:          types.VoiceModelGPT4oRealtime,
		PhoneNumbers:   1,
		MinReplicas:    0,
	}

	b, err := Voice(usage, cat)
	require.NoError(t, err)

	assert.Equal(t, int64(1500), b.Volume.Interactions)
	assertDecimal(t, "7500", b.Volume.Minutes)
	assert.Equal(t, types.ComputeOnDemand, b.ComputeMode)

	assertDecimal(t, "0.80", b.Amount(ComponentPhoneNumbers))
	assertDecimal(t, "60", b.Amount(ComponentInboundMinutes)) // 7500 * 0.0080

	// 7500 min * 2000 tokens = 15M audio tokens, 40% input
	in, _ := b.Component(ComponentAudioInput)
	out, _ := b.Component(ComponentAudioOutput)
	assertDecimal(t, "6000000", in.Quantity)
	assertDecimal(t, "9000000", out.Quantity)
	assertDecimal(t, "191.0046", in.Amount) // 6M * 31.8341 / 1M
	assertDecimal(t, "573.012", out.Amount) // 9M * 63.6680 / 1M

	// 2000 text tokens per call, 70/30
	assertDecimal(t, "8.358", b.Amount(ComponentTextInput))
	assertDecimal(t, "14.328", b.Amount(ComponentTextOutput))

	// 450000 compute seconds: 225000 vCPU-s and 450000 GiB-s against the free tier
	vcpu, _ := b.Component(ComponentContainerVCPU)
	assertDecimal(t, "225000", vcpu.Quantity)
	assertDecimal(t, "45000", vcpu.Billable)
	assertDecimal(t, "0.864", vcpu.Amount)
	assertDecimal(t, "0.216", b.Amount(ComponentContainerMemory))
	assertDecimal(t, "0", b.Amount(ComponentContainerRequest))

	assertDecimal(t, "848.5826", b.Total)
	assertSumInvariant(t, b)
	assert.True(t, b.PerInteractionDefined)
	assert.True(t, b.PerInteraction.Equal(b.Total.Div(decimal.NewFromInt(1500))))
}

func TestVoiceComponentOrder(t *testing.T) {
	b, err := Voice(types.DefaultVoiceUsage(), testCatalog(t))
	require.NoError(t, err)

	var names []string
	for _, c := range b.Components {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		ComponentPhoneNumbers, ComponentInboundMinutes,
		ComponentContainerVCPU, ComponentContainerMemory, ComponentContainerRequest,
		ComponentAudioInput, ComponentAudioOutput, ComponentTextInput, ComponentTextOutput,
	}, names)
	assert.Equal(t, []types.Category{types.CategoryTelephony, types.CategoryCompute, types.CategoryAI}, b.Categories())
}

func TestVoiceAlwaysOn(t *testing.T) {
	cat := testCatalog(t)
	usage := types.DefaultVoiceUsage()
	usage.MinReplicas = 1

	b, err := Voice(usage, cat)
	require.NoError(t, err)

	assert.Equal(t, types.ComputeAlwaysOn, b.ComputeMode)
	assertDecimal(t, "720", b.Volume.OperatingHours)
	assertDecimal(t, "450000", b.Usage.ActiveSeconds)
	assertDecimal(t, "2142000", b.Usage.IdleSeconds)

	// active 4.32 + 1.08, idle 2142000 * 0.0000030 = 6.426
	compute := b.Amount(ComponentContainerVCPU).Add(b.Amount(ComponentContainerMemory))
	assertDecimal(t, "11.826", compute)

	// idle cost leans to vCPU by rate weight (0.0000192 vs 0.0000024)
	idleVCPU := b.Amount(ComponentContainerVCPU).Sub(decimal.RequireFromString("4.32"))
	idleMem := b.Amount(ComponentContainerMemory).Sub(decimal.RequireFromString("1.08"))
	assert.True(t, idleVCPU.GreaterThan(idleMem))

	// 3000 call requests + 43200 health probes, inside the free tier
	req, _ := b.Component(ComponentContainerRequest)
	assertDecimal(t, "46200", req.Quantity)
	assertDecimal(t, "0", req.Amount)

	assertSumInvariant(t, b)
	require.Len(t, b.FreeTier, 1)
	assert.Equal(t, "container_requests", b.FreeTier[0].Metric)
}

func TestVoiceAlwaysOnScalesWithReplicas(t *testing.T) {
	cat := testCatalog(t)
	one := types.DefaultVoiceUsage()
	one.MinReplicas = 1
	three := one
	three.MinReplicas = 3

	b1, err := Voice(one, cat)
	require.NoError(t, err)
	b3, err := Voice(three, cat)
	require.NoError(t, err)

	c1 := b1.Subtotal(types.CategoryCompute)
	c3 := b3.Subtotal(types.CategoryCompute)
	assert.True(t, c3.Equal(c1.Mul(decimal.NewFromInt(3))), "3 replicas %s vs 1 replica %s", c3, c1)
	assertDecimal(t, "23.652", b3.Total.Sub(b1.Total))
}

func TestVoiceIdleClampedAtZero(t *testing.T) {
	cat := testCatalog(t)
	usage := types.VoiceUsage{
		MinutesPerCall:    30,
		CallsPerDay:       500,
		Model:             types.VoiceModelGPTRealtimeMini,
		PhoneNumbers:      1,
		MinReplicas:       1,
		BusinessHoursOnly: true,
	}

	b, err := Voice(usage, cat)
	require.NoError(t, err)

	// 450000 call minutes exceed the 227.3 h window
	assertDecimal(t, "0", b.Usage.IdleSeconds)
	assertSumInvariant(t, b)
}

func TestVoiceZeroVolume(t *testing.T) {
	usage := types.DefaultVoiceUsage()
	usage.CallsPerDay = 0

	b, err := Voice(usage, testCatalog(t))
	require.NoError(t, err)

	assert.Equal(t, int64(0), b.Volume.Interactions)
	assert.False(t, b.PerInteractionDefined)
	assertDecimal(t, "0", b.PerInteraction)
	assertDecimal(t, "0.80", b.Total)
	assertSumInvariant(t, b)
}

func TestVoiceRejectsInvalidUsage(t *testing.T) {
	cat := testCatalog(t)
	tests := []struct {
		name    string
		mutate  func(*types.VoiceUsage)
		errType errors.Type
	}{
		{"zero minutes", func(u *types.VoiceUsage) { u.MinutesPerCall = 0 }, errors.TypeInput},
		{"negative calls", func(u *types.VoiceUsage) { u.CallsPerDay = -1 }, errors.TypeInput},
		{"no phone numbers", func(u *types.VoiceUsage) { u.PhoneNumbers = 0 }, errors.TypeInput},
		{"negative replicas", func(u *types.VoiceUsage) { u.MinReplicas = -1 }, errors.TypeInput},
		{"unknown model", func(u *types.VoiceUsage) { u.Model = "gpt_voice_9" }, errors.TypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := types.DefaultVoiceUsage()
			tt.mutate(&usage)
			_, err := Voice(usage, cat)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestVoiceModelMissingFromCatalog(t *testing.T) {
	doc := catalog.DefaultDocument()
	cat, err := catalog.Parse(dropModel(t, doc, "voice_agent", "gpt_realtime"), catalog.FormatJSON)
	require.NoError(t, err)

	usage := types.DefaultVoiceUsage()
	usage.Model = types.VoiceModelGPTRealtime
	_, err = Voice(usage, cat)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestVoiceNilCatalog(t *testing.T) {
	_, err := Voice(types.DefaultVoiceUsage(), nil)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestVolumeMonotonic(t *testing.T) {
	cat := testCatalog(t)

	for _, model := range cat.VoiceModels() {
		for _, replicas := range []int{0, 1, 2} {
			for _, bh := range []bool{false, true} {
				prev := decimal.Zero
				for _, calls := range []int{0, 1, 10, 20, 40, 80, 160, 320} {
					usage := types.VoiceUsage{
						MinutesPerCall: 4, CallsPerDay: calls, Model: model,
						PhoneNumbers: 2, MinReplicas: replicas, BusinessHoursOnly: bh,
					}
					b, err := Voice(usage, cat)
					require.NoError(t, err)
					assertSumInvariant(t, b)
					assert.False(t, b.Total.LessThan(prev), "%s replicas=%d calls=%d", model, replicas, calls)
					prev = b.Total
				}
			}
		}
	}

	for _, model := range cat.EmailModels() {
		for _, rag := range []bool{false, true} {
			prev := decimal.Zero
			for _, emails := range []int{0, 1, 10, 20, 40, 80, 160, 320, 5000} {
				usage := types.EmailUsage{
					EmailsPerDay: emails, PollingIntervalMinutes: 5, Model: model,
					RAGEnabled: rag, ManualPageCount: 100,
				}
				b, err := Email(usage, cat)
				require.NoError(t, err)
				assertSumInvariant(t, b)
				assert.False(t, b.Total.LessThan(prev), "%s emails=%d", model, emails)
				prev = b.Total
			}
		}
	}
}

func TestOnDemandCheaperAtLowVolume(t *testing.T) {
	cat := testCatalog(t)

	compute := func(calls, replicas int) decimal.Decimal {
		usage := types.DefaultVoiceUsage()
		usage.CallsPerDay = calls
		usage.MinReplicas = replicas
		b, err := Voice(usage, cat)
		require.NoError(t, err)
		return b.Subtotal(types.CategoryCompute)
	}

	for _, replicas := range []int{1, 2, 3} {
		assert.True(t, compute(1, 0).LessThan(compute(1, replicas)), "replicas=%d", replicas)
	}

	// once on-demand is no longer cheaper it stays that way
	crossed := false
	for calls := 0; calls <= 2000; calls += 50 {
		onDemand := compute(calls, 0)
		alwaysOn := compute(calls, 1)
		if crossed {
			assert.False(t, onDemand.LessThan(alwaysOn), "crossover reversed at %d calls/day", calls)
		}
		if !onDemand.LessThan(alwaysOn) {
			crossed = true
		}
	}
}

func TestBusinessHoursNeverIncreaseCost(t *testing.T) {
	cat := testCatalog(t)

	for _, replicas := range []int{1, 2, 3} {
		for _, calls := range []int{0, 10, 100, 500} {
			usage := types.DefaultVoiceUsage()
			usage.MinReplicas = replicas
			usage.CallsPerDay = calls

			full, err := Voice(usage, cat)
			require.NoError(t, err)
			usage.BusinessHoursOnly = true
			business, err := Voice(usage, cat)
			require.NoError(t, err)

			assert.False(t, business.Subtotal(types.CategoryCompute).GreaterThan(full.Subtotal(types.CategoryCompute)),
				"replicas=%d calls=%d", replicas, calls)
		}
	}

	for _, interval := range []float64{0.01, 1, 5, 60} {
		usage := types.DefaultEmailUsage()
		usage.PollingIntervalMinutes = interval

		full, err := Email(usage, cat)
		require.NoError(t, err)
		usage.BusinessHoursOnly = true
		business, err := Email(usage, cat)
		require.NoError(t, err)

		assert.False(t, business.Subtotal(types.CategoryFunctions).GreaterThan(full.Subtotal(types.CategoryFunctions)),
			"interval=%v", interval)
	}
}

func TestEmailConcreteScenario(t *testing.T) {
	cat := testCatalog(t)
	usage := types.DefaultEmailUsage()
	usage.PollingIntervalMinutes = 1

	b, err := Email(usage, cat)
	require.NoError(t, err)

	assert.Equal(t, int64(1500), b.Volume.Interactions)
	assertDecimal(t, "43200", b.Volume.Checks)

	// both function meters stay inside the free tier
	exec, _ := b.Component(ComponentFunctionsExecutions)
	assertDecimal(t, "43200", exec.Quantity)
	assertDecimal(t, "0", exec.Billable)
	assertDecimal(t, "0", exec.Amount)
	compute, _ := b.Component(ComponentFunctionsCompute)
	assertDecimal(t, "43200", compute.Quantity) // 43200 * 2 s * 0.5 GB
	assertDecimal(t, "0", compute.Amount)

	// (1500 + 2000) input and 500 output tokens per email on gpt_4o_mini
	assertDecimal(t, "0.63", b.Amount(ComponentLLMInput))
	assertDecimal(t, "0.36", b.Amount(ComponentLLMOutput))
	assertDecimal(t, "0.99", b.Total)
	assertSumInvariant(t, b)

	for _, ft := range b.FreeTier {
		assert.False(t, ft.Exceeded, ft.Metric)
	}
}

func TestEmailFreeTierExceeded(t *testing.T) {
	cat := testCatalog(t)
	usage := types.DefaultEmailUsage()
	usage.PollingIntervalMinutes = 0.01

	b, err := Email(usage, cat)
	require.NoError(t, err)

	assertDecimal(t, "4320000", b.Volume.Checks)
	// (4320000 - 1000000) / 1M * 0.16
	assertDecimal(t, "0.5312", b.Amount(ComponentFunctionsExecutions))
	// (4320000 - 400000) * 0.0000128
	assertDecimal(t, "50.176", b.Amount(ComponentFunctionsCompute))

	for _, ft := range b.FreeTier {
		assert.True(t, ft.Exceeded, ft.Metric)
		assert.True(t, ft.Percent.GreaterThan(decimal.NewFromInt(100)), ft.Metric)
	}
	assertSumInvariant(t, b)
}

func TestEmailWithoutRAG(t *testing.T) {
	cat := testCatalog(t)

	for _, pages := range []int{0, 10, 5000} {
		usage := types.DefaultEmailUsage()
		usage.RAGEnabled = false
		usage.ManualPageCount = pages

		b, err := Email(usage, cat)
		require.NoError(t, err)
		in, _ := b.Component(ComponentLLMInput)
		assertDecimal(t, "2250000", in.Quantity) // 1500 base tokens * 1500 emails

		storage, err := SharedStorage(pages, false, cat)
		require.NoError(t, err)
		assertDecimal(t, "0", storage.Cost)
		assertDecimal(t, "0", storage.StorageGB)
	}
}

func TestEmailZeroVolume(t *testing.T) {
	usage := types.DefaultEmailUsage()
	usage.EmailsPerDay = 0

	b, err := Email(usage, testCatalog(t))
	require.NoError(t, err)
	assert.False(t, b.PerInteractionDefined)
	assertDecimal(t, "0", b.Amount(ComponentLLMInput))
	assertSumInvariant(t, b)
}

func TestEmailRejectsInvalidUsage(t *testing.T) {
	cat := testCatalog(t)
	tests := []struct {
		name    string
		mutate  func(*types.EmailUsage)
		errType errors.Type
	}{
		{"zero interval", func(u *types.EmailUsage) { u.PollingIntervalMinutes = 0 }, errors.TypeInput},
		{"negative emails", func(u *types.EmailUsage) { u.EmailsPerDay = -5 }, errors.TypeInput},
		{"negative pages", func(u *types.EmailUsage) { u.ManualPageCount = -1 }, errors.TypeInput},
		{"unknown model", func(u *types.EmailUsage) { u.Model = "gpt_3" }, errors.TypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := types.DefaultEmailUsage()
			tt.mutate(&usage)
			_, err := Email(usage, cat)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestSharedStorage(t *testing.T) {
	cat := testCatalog(t)

	s, err := SharedStorage(1024, true, cat)
	require.NoError(t, err)
	// 1024 pages * 0.1 MB / 1024 * 1.5 overhead
	assertDecimal(t, "0.15", s.StorageGB)
	assertDecimal(t, "0.00249", s.Cost)

	s, err = SharedStorage(0, true, cat)
	require.NoError(t, err)
	assertDecimal(t, "0", s.Cost)

	_, err = SharedStorage(-1, true, cat)
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestEstimatorReport(t *testing.T) {
	cat := testCatalog(t)
	est := NewEstimator(catalog.NewStatic(cat))

	voice := types.DefaultVoiceUsage()
	email := types.DefaultEmailUsage()
	report, err := est.Estimate(context.Background(), Request{Voice: &voice, Email: &email})
	require.NoError(t, err)

	require.NotNil(t, report.Voice)
	require.NotNil(t, report.Email)
	require.NotNil(t, report.Storage)
	assert.Equal(t, cat.Version, report.CatalogVersion)
	assert.Equal(t, cat.Hash(), report.CatalogHash)
	assert.True(t, report.Total.Equal(report.Voice.Total.Add(report.Email.Total).Add(report.Storage.Cost)))
	assert.False(t, report.EstimatedAt.IsZero())
}

func TestEstimatorVoiceOnly(t *testing.T) {
	est := NewEstimator(catalog.NewStatic(testCatalog(t)))
	voice := types.DefaultVoiceUsage()

	report, err := est.Estimate(context.Background(), Request{Voice: &voice})
	require.NoError(t, err)
	assert.Nil(t, report.Email)
	assert.Nil(t, report.Storage)
	assert.True(t, report.Total.Equal(report.Voice.Total))
}

func TestEstimatorErrors(t *testing.T) {
	est := NewEstimator(catalog.NewStatic(testCatalog(t)))

	_, err := est.Estimate(context.Background(), Request{})
	assert.True(t, errors.IsType(err, errors.TypeInput))

	bad := types.DefaultEmailUsage()
	bad.PollingIntervalMinutes = -1
	_, err = est.Estimate(context.Background(), Request{Email: &bad})
	assert.True(t, errors.IsType(err, errors.TypeInput))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	voice := types.DefaultVoiceUsage()
	_, err = est.Voice(ctx, voice)
	assert.ErrorIs(t, err, context.Canceled)

	empty := NewEstimator(catalog.NewStatic(nil))
	_, err = empty.Email(context.Background(), types.DefaultEmailUsage())
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

// dropModel removes one model from a catalog document
func dropModel(t *testing.T, doc []byte, agent, model string) []byte {
	t.Helper()
	var tree map[string]interface{}
	require.NoError(t, json.Unmarshal(doc, &tree))
	models := tree[agent].(map[string]interface{})["models"].(map[string]interface{})
	delete(models, model)
	out, err := json.Marshal(tree)
	require.NoError(t, err)
	return out
}
