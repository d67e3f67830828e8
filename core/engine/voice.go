// Package engine prices agent configurations against a pricing catalog.
// Engines are pure functions: no logging, no I/O, no shared state.
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"agent-cost/core/catalog"
	"agent-cost/core/pricing/primitives"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// Voice component names
const (
	ComponentPhoneNumbers     = "phone_numbers"
	ComponentInboundMinutes   = "acs_inbound_minutes"
	ComponentContainerVCPU    = "container_vcpu"
	ComponentContainerMemory  = "container_memory"
	ComponentContainerRequest = "container_requests"
	ComponentAudioInput       = "audio_input"
	ComponentAudioOutput      = "audio_output"
	ComponentTextInput        = "text_input"
	ComponentTextOutput       = "text_output"
)

// RequestsPerCall counts the session setup and teardown requests of a call
const RequestsPerCall = 2

// TextInputRatio is the input share of per-call text reasoning tokens
var TextInputRatio = decimal.RequireFromString("0.7")

// Voice prices a voice agent for one 30-day month
func Voice(usage types.VoiceUsage, cat *catalog.Catalog) (*types.CostBreakdown, error) {
	if cat == nil {
		return nil, errors.Config("no pricing catalog")
	}
	if err := usage.Validate(); err != nil {
		return nil, err
	}
	model, err := cat.VoiceModel(usage.Model)
	if err != nil {
		return nil, err
	}

	// Step 1: volume
	calls := primitives.Monthly(usage.CallsPerDay)
	callsD := decimal.NewFromInt(calls)
	minutes := callsD.Mul(decimal.NewFromFloat(usage.MinutesPerCall))

	b := types.NewCostBreakdown(types.AgentVoice, cat.Currency, cat.Version)
	b.Model = usage.Model.String()
	b.ComputeMode = types.ComputeModeFor(usage.MinReplicas)
	b.Volume.Minutes = minutes

	// Step 2: telephony
	b.Add(primitives.Linear(primitives.Line{
		Name: ComponentPhoneNumbers, Label: "Phone numbers",
		Category: types.CategoryTelephony, Measure: "numbers",
	}, decimal.NewFromInt(int64(usage.PhoneNumbers)), cat.Telephony.PhoneNumberMonthly, "per number-month"))
	b.Add(primitives.Linear(primitives.Line{
		Name: ComponentInboundMinutes, Label: "Inbound call minutes",
		Category: types.CategoryTelephony, Measure: "minutes",
	}, minutes, cat.Telephony.InboundPerMinute, "per minute"))

	// Step 3: container hosting
	if b.ComputeMode == types.ComputeOnDemand {
		priceOnDemand(b, callsD, minutes, cat.Containers)
	} else {
		priceAlwaysOn(b, usage, callsD, minutes, cat)
	}

	// Step 4: realtime model tokens
	priceVoiceAI(b, callsD, minutes, model, cat.Audio)

	b.SetInteractions(calls)
	return b, nil
}

// priceOnDemand bills only the seconds spent on calls, after free allowances
func priceOnDemand(b *types.CostBreakdown, calls, minutes decimal.Decimal, rates catalog.ContainerRates) {
	active := primitives.MinutesToSeconds(minutes)
	vcpuSeconds := active.Mul(rates.VCPUPerReplica)
	gibSeconds := active.Mul(rates.MemoryGiBPerReplica)
	requests := calls.Mul(decimal.NewFromInt(RequestsPerCall))

	b.Add(primitives.AboveAllowance(primitives.Line{
		Name: ComponentContainerVCPU, Label: "Container vCPU",
		Category: types.CategoryCompute, Measure: "vCPU-seconds",
	}, vcpuSeconds, rates.FreeVCPUSeconds, rates.VCPUPerSecond, "per vCPU-second"))
	b.Add(primitives.AboveAllowance(primitives.Line{
		Name: ComponentContainerMemory, Label: "Container memory",
		Category: types.CategoryCompute, Measure: "GiB-seconds",
	}, gibSeconds, rates.FreeGiBSeconds, rates.MemoryPerGiBSecond, "per GiB-second"))
	b.Add(requestsComponent(requests, rates))

	b.Usage.ActiveSeconds = active
	b.Usage.VCPUSeconds = vcpuSeconds
	b.Usage.GiBSeconds = gibSeconds
	b.Usage.Requests = requests
	b.FreeTier = append(b.FreeTier,
		primitives.FreeTier("container_vcpu_seconds", vcpuSeconds, rates.FreeVCPUSeconds),
		primitives.FreeTier("container_gib_seconds", gibSeconds, rates.FreeGiBSeconds),
		primitives.FreeTier("container_requests", requests, rates.FreeRequests),
	)
	b.Assumptions = append(b.Assumptions,
		"Serverless hosting bills call time only; replicas scale to zero between calls")
}

// priceAlwaysOn bills min_replicas for the whole operating window: call
// time at the active rates, the rest of the window at the idle rate.
func priceAlwaysOn(b *types.CostBreakdown, usage types.VoiceUsage, calls, minutes decimal.Decimal, cat *catalog.Catalog) {
	rates := cat.Containers
	hours := cat.OperatingHours.For(usage.BusinessHoursOnly)
	replicas := decimal.NewFromInt(int64(usage.MinReplicas))

	window := primitives.HoursToSeconds(hours)
	active := primitives.MinutesToSeconds(minutes)
	idle := primitives.NonNegative(window.Sub(active))

	activeVCPU := active.Mul(rates.VCPUPerReplica).Mul(replicas)
	activeGiB := active.Mul(rates.MemoryGiBPerReplica).Mul(replicas)
	vcpuActive := activeVCPU.Mul(rates.VCPUPerSecond)
	memActive := activeGiB.Mul(rates.MemoryPerGiBSecond)

	idleCost := idle.Mul(rates.IdlePerReplicaSecond).Mul(replicas)
	idleVCPU, idleMem := primitives.Apportion(idleCost, rates.VCPUPerSecond, rates.MemoryPerGiBSecond)
	vcpuShare := primitives.Weight(rates.VCPUPerSecond, rates.MemoryPerGiBSecond)

	provisioned := active.Add(idle).Mul(replicas)
	vcpuSeconds := provisioned.Mul(rates.VCPUPerReplica)
	gibSeconds := provisioned.Mul(rates.MemoryGiBPerReplica)

	b.Add(primitives.Apportioned(primitives.Line{
		Name: ComponentContainerVCPU, Label: "Container vCPU",
		Category: types.CategoryCompute, Measure: "vCPU-seconds",
	}, vcpuSeconds, vcpuActive.Add(idleVCPU), fmt.Sprintf(
		"active vCPU-seconds * %s + idle seconds * %s * %s replicas * %s",
		rates.VCPUPerSecond, rates.IdlePerReplicaSecond, replicas, vcpuShare.Round(4))))
	b.Add(primitives.Apportioned(primitives.Line{
		Name: ComponentContainerMemory, Label: "Container memory",
		Category: types.CategoryCompute, Measure: "GiB-seconds",
	}, gibSeconds, memActive.Add(idleMem), fmt.Sprintf(
		"active GiB-seconds * %s + idle seconds * %s * %s replicas * %s",
		rates.MemoryPerGiBSecond, rates.IdlePerReplicaSecond, replicas, decimal.NewFromInt(1).Sub(vcpuShare).Round(4))))

	// one health probe per minute of the window
	requests := calls.Mul(decimal.NewFromInt(RequestsPerCall)).Add(primitives.HoursToMinutes(hours))
	b.Add(requestsComponent(requests, rates))

	b.Volume.OperatingHours = hours
	b.Usage.ActiveSeconds = active
	b.Usage.IdleSeconds = idle
	b.Usage.VCPUSeconds = vcpuSeconds
	b.Usage.GiBSeconds = gibSeconds
	b.Usage.Requests = requests
	b.FreeTier = append(b.FreeTier,
		primitives.FreeTier("container_requests", requests, rates.FreeRequests))

	span := "full month"
	if usage.BusinessHoursOnly {
		span = "business hours"
		if def := cat.OperatingHours.BusinessHoursDefinition; def != "" {
			span += " (" + def + ")"
		}
	}
	b.Assumptions = append(b.Assumptions,
		fmt.Sprintf("%d always-on replica(s) running %s hours per month, %s", usage.MinReplicas, hours, span),
		"No free vCPU or GiB-second allowance applies to always-on replicas",
	)
}

func requestsComponent(requests decimal.Decimal, rates catalog.ContainerRates) types.CostComponent {
	return primitives.AboveAllowancePerMillion(primitives.Line{
		Name: ComponentContainerRequest, Label: "Container requests",
		Category: types.CategoryCompute, Measure: "requests",
	}, requests, rates.FreeRequests, rates.RequestsPerMillion)
}

// priceVoiceAI bills audio tokens by call minute and text reasoning tokens
// by call
func priceVoiceAI(b *types.CostBreakdown, calls, minutes decimal.Decimal, model catalog.VoiceModelRates, audio catalog.AudioConversion) {
	audioTokens := minutes.Mul(audio.TokensPerMinute)
	audioIn, audioOut := primitives.Split(audioTokens, audio.InputRatio)

	textTokens := calls.Mul(model.TokensPerCall)
	textIn, textOut := primitives.Split(textTokens, TextInputRatio)

	b.Add(primitives.PerMillion(primitives.Line{
		Name: ComponentAudioInput, Label: "Audio input tokens",
		Category: types.CategoryAI, Measure: "audio tokens",
	}, audioIn, model.AudioInputPerMillion))
	b.Add(primitives.PerMillion(primitives.Line{
		Name: ComponentAudioOutput, Label: "Audio output tokens",
		Category: types.CategoryAI, Measure: "audio tokens",
	}, audioOut, model.AudioOutputPerMillion))
	b.Add(primitives.PerMillion(primitives.Line{
		Name: ComponentTextInput, Label: "Text input tokens",
		Category: types.CategoryAI, Measure: "text tokens",
	}, textIn, model.TextInputPerMillion))
	b.Add(primitives.PerMillion(primitives.Line{
		Name: ComponentTextOutput, Label: "Text output tokens",
		Category: types.CategoryAI, Measure: "text tokens",
	}, textOut, model.TextOutputPerMillion))

	b.Usage.InputTokens = audioIn.Add(textIn)
	b.Usage.OutputTokens = audioOut.Add(textOut)
	b.Assumptions = append(b.Assumptions,
		fmt.Sprintf("%s audio tokens per call minute, %s%% input",
			audio.TokensPerMinute, audio.InputRatio.Shift(2)),
		fmt.Sprintf("%s text tokens per call, %s%% input", model.TokensPerCall, TextInputRatio.Shift(2)),
	)
}
