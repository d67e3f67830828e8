package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-cost/core/catalog"
	"agent-cost/core/compare"
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

func supportVoice() types.VoiceUsage {
	return types.VoiceUsage{
		MinutesPerCall: 5,
		CallsPerDay:    50,
		Model:          types.VoiceModelGPT4oRealtime,
		PhoneNumbers:   1,
	}
}

func testReport(t *testing.T) (*engine.Report, engine.Request) {
	t.Helper()
	voice := supportVoice()
	email := types.DefaultEmailUsage()
	req := engine.Request{Voice: &voice, Email: &email}
	report, err := engine.EstimateWith(req, testCatalog(t))
	require.NoError(t, err)
	return report, req
}

func TestShares(t *testing.T) {
	usage := types.DefaultEmailUsage()
	usage.PollingIntervalMinutes = 1
	b, err := engine.Email(usage, testCatalog(t))
	require.NoError(t, err)

	shares := Shares(b)
	require.Len(t, shares, len(b.Components))

	sum := decimal.Zero
	for i, s := range shares {
		assert.Equal(t, b.Components[i].Name, s.Name)
		sum = sum.Add(s.Percent)
	}
	assert.True(t, sum.Round(6).Equal(decimal.NewFromInt(100)), sum.String())

	var input ComponentShare
	for _, s := range shares {
		if s.Name == engine.ComponentLLMInput {
			input = s
		}
	}
	// 0.63 of 0.99 over 1500 emails
	assert.Equal(t, "63.6", input.Percent.StringFixed(1))
	assert.True(t, input.PerInteraction.Equal(decimal.RequireFromString("0.00042")), input.PerInteraction.String())
}

func TestSharesZeroVolume(t *testing.T) {
	usage := supportVoice()
	usage.CallsPerDay = 0
	b, err := engine.Voice(usage, testCatalog(t))
	require.NoError(t, err)

	for _, s := range Shares(b) {
		assert.True(t, s.PerInteraction.IsZero(), s.Name)
		if s.Name == engine.ComponentPhoneNumbers {
			assert.True(t, s.Percent.Equal(decimal.NewFromInt(100)), s.Percent.String())
		}
	}
	assert.Nil(t, Shares(nil))
}

func TestGet(t *testing.T) {
	for _, f := range Formats() {
		got, err := Get(f)
		require.NoError(t, err)
		assert.Equal(t, f, got.Format())
	}
	assert.Equal(t, []Format{FormatCLI, FormatJSON, FormatMarkdown}, Formats())

	_, err := Get("html")
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestCLIRenderReport(t *testing.T) {
	report, _ := testReport(t)

	var buf bytes.Buffer
	err := (&CLIFormatter{}).Render(&buf, &Result{Report: report, Details: true})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "Voice agent: gpt_4o_realtime (on demand)")
	assert.Contains(t, out, "Email agent: gpt_4o_mini")
	assert.Contains(t, out, "Phone numbers")
	assert.Contains(t, out, "PER CALL")
	assert.Contains(t, out, "Free tier container_vcpu_seconds")
	assert.Contains(t, out, "Shared document storage")
	assert.Contains(t, out, "Monthly total: CHF "+report.Total.StringFixed(2))
}

func TestCLIRenderSummary(t *testing.T) {
	report, _ := testReport(t)

	var buf bytes.Buffer
	require.NoError(t, (&CLIFormatter{}).Render(&buf, &Result{Report: report}))
	out := buf.String()

	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "telephony")
	assert.NotContains(t, out, "Phone numbers")
}

func TestCLIRenderTableAndRecommendations(t *testing.T) {
	cat := testCatalog(t)
	usage := supportVoice()
	usage.MinReplicas = 3

	table, err := compare.Replicas(usage, cat)
	require.NoError(t, err)
	recs, err := compare.Recommend(&usage, nil, cat, compare.DefaultPolicy())
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	var buf bytes.Buffer
	err = (&CLIFormatter{Width: 40}).Render(&buf, &Result{Tables: []*compare.Table{table}, Recommendations: recs})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "Hosting comparison")
	assert.Contains(t, out, "Serverless (0 replicas)")
	assert.Contains(t, out, "Cold start")
	assert.Contains(t, out, "Reduce always-on replicas")
	assert.Contains(t, out, "Always-on (3 replicas) -> Always-on (1 replica)")

	_, recText, found := strings.Cut(out, "Recommendations")
	require.True(t, found)
	for _, line := range strings.Split(recText, "\n") {
		if strings.HasPrefix(line, "   ") && !strings.Contains(line, "->") {
			assert.LessOrEqual(t, len(line), 40+3, line)
		}
	}
}

func TestJSONRender(t *testing.T) {
	report, _ := testReport(t)

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Render(&buf, &Result{Report: report}))

	var decoded struct {
		Report struct {
			Voice struct {
				Total      string `json:"total"`
				Components []struct {
					Name string `json:"name"`
				} `json:"components"`
			} `json:"voice"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "848.5826", decoded.Report.Voice.Total)
	assert.Equal(t, engine.ComponentPhoneNumbers, decoded.Report.Voice.Components[0].Name)
}

func TestMarkdownRender(t *testing.T) {
	report, req := testReport(t)
	recs, err := compare.Recommend(req.Voice, req.Email, testCatalog(t), compare.DefaultPolicy())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, (&MarkdownFormatter{}).Render(&buf, &Result{Report: report, Recommendations: recs}))
	out := buf.String()

	assert.Contains(t, out, "# Monthly cost estimate")
	assert.Contains(t, out, "## Voice agent (`gpt_4o_realtime`)")
	assert.Contains(t, out, "| **Total** | | **848.58** |")
	assert.Contains(t, out, "## Recommendations")
	assert.Contains(t, out, "Switch to a cheaper voice model")
}

func TestNewExport(t *testing.T) {
	report, req := testReport(t)
	recs, err := compare.Recommend(req.Voice, req.Email, testCatalog(t), compare.DefaultPolicy())
	require.NoError(t, err)

	e := NewExport(report, req, recs)

	_, err = uuid.Parse(e.ID)
	assert.NoError(t, err)
	assert.Equal(t, report.EstimatedAt, e.GeneratedAt)
	assert.Same(t, req.Voice, e.Configuration.Voice)

	require.NotNil(t, e.Voice)
	assert.Equal(t, "848.58", e.Voice.MonthlyCost.String())
	assert.Equal(t, int64(1500), e.Voice.InteractionsPerMonth)
	assert.True(t, report.Voice.PerInteraction.Round(4).Equal(e.Voice.CostPerInteraction))
	for _, c := range e.Voice.Components {
		assert.LessOrEqual(t, -c.Amount.Exponent(), int32(AmountPlaces), c.Name)
		assert.LessOrEqual(t, -c.Percent.Exponent(), int32(PercentPlaces), c.Name)
	}
	assert.NotEmpty(t, e.Voice.FreeTier)

	require.NotNil(t, e.Storage)
	assert.Equal(t, report.Storage.PageCount, e.Storage.PageCount)
	assert.True(t, e.PotentialSaving.Equal(compare.TotalSavings(recs).Round(2)))
}

func TestExportWriteFile(t *testing.T) {
	report, req := testReport(t)
	e := NewExport(report, req, nil)

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, e.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, e.ID, decoded["id"])
	assert.Contains(t, decoded, "configuration")
	assert.NotContains(t, decoded, "recommendations")

	err = e.WriteFile(filepath.Join(t.TempDir(), "missing", "export.json"))
	assert.True(t, errors.IsType(err, errors.TypeInternal))
}
