package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"agent-cost/core/catalog"
	"agent-cost/core/pricing/primitives"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// Email component names
const (
	ComponentFunctionsExecutions = "functions_executions"
	ComponentFunctionsCompute    = "functions_compute"
	ComponentLLMInput            = "llm_input"
	ComponentLLMOutput           = "llm_output"
)

// Email prices an email agent for one 30-day month. Mailbox polling runs a
// serverless function every interval during the operating window; each
// email is answered with one model call. Blob storage is priced separately
// by SharedStorage.
func Email(usage types.EmailUsage, cat *catalog.Catalog) (*types.CostBreakdown, error) {
	if cat == nil {
		return nil, errors.Config("no pricing catalog")
	}
	if err := usage.Validate(); err != nil {
		return nil, err
	}
	model, err := cat.EmailModel(usage.Model)
	if err != nil {
		return nil, err
	}

	emails := primitives.Monthly(usage.EmailsPerDay)
	emailsD := decimal.NewFromInt(emails)

	b := types.NewCostBreakdown(types.AgentEmail, cat.Currency, cat.Version)
	b.Model = usage.Model.String()

	// Functions: one execution per mailbox check
	fn := cat.Functions
	hours := cat.OperatingHours.For(usage.BusinessHoursOnly)
	checks := primitives.HoursToMinutes(hours).Div(decimal.NewFromFloat(usage.PollingIntervalMinutes))
	gibSeconds := checks.Mul(fn.SecondsPerExecution).Mul(fn.MemoryGB)

	b.Add(primitives.AboveAllowancePerMillion(primitives.Line{
		Name: ComponentFunctionsExecutions, Label: "Function executions",
		Category: types.CategoryFunctions, Measure: "executions",
	}, checks, fn.FreeExecutions, fn.ExecutionsPerMillion))
	b.Add(primitives.AboveAllowance(primitives.Line{
		Name: ComponentFunctionsCompute, Label: "Function compute",
		Category: types.CategoryFunctions, Measure: "GiB-seconds",
	}, gibSeconds, fn.FreeGiBSeconds, fn.PerGiBSecond, "per GiB-second"))

	// LLM: one prompt and one reply per email
	inputTokens := cat.EmailTokens.InputPerEmail(usage.RAGEnabled).Mul(emailsD)
	outputTokens := cat.EmailTokens.Output.Mul(emailsD)

	b.Add(primitives.PerMillion(primitives.Line{
		Name: ComponentLLMInput, Label: "LLM input tokens",
		Category: types.CategoryLLM, Measure: "tokens",
	}, inputTokens, model.InputPerMillion))
	b.Add(primitives.PerMillion(primitives.Line{
		Name: ComponentLLMOutput, Label: "LLM output tokens",
		Category: types.CategoryLLM, Measure: "tokens",
	}, outputTokens, model.OutputPerMillion))

	b.Volume.Checks = checks
	b.Volume.OperatingHours = hours
	b.Usage.Executions = checks
	b.Usage.GiBSeconds = gibSeconds
	b.Usage.InputTokens = inputTokens
	b.Usage.OutputTokens = outputTokens
	b.FreeTier = append(b.FreeTier,
		primitives.FreeTier("functions_executions", checks, fn.FreeExecutions),
		primitives.FreeTier("functions_gib_seconds", gibSeconds, fn.FreeGiBSeconds),
	)

	prompt := "without RAG context"
	if usage.RAGEnabled {
		prompt = "with RAG context"
	}
	b.Assumptions = append(b.Assumptions,
		fmt.Sprintf("Mailbox checked every %s minutes over %s hours per month",
			decimal.NewFromFloat(usage.PollingIntervalMinutes), hours),
		fmt.Sprintf("%s input tokens per email %s, %s output tokens",
			cat.EmailTokens.InputPerEmail(usage.RAGEnabled), prompt, cat.EmailTokens.Output),
		"Blob storage for RAG documents is reported separately",
	)

	b.SetInteractions(emails)
	return b, nil
}
