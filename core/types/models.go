package types

import (
	"sort"
	"strings"
)

// VoiceModel is the closed set of realtime speech-to-speech models a voice
// agent can run on. A catalog may price a subset of them.
type VoiceModel string

const (
	VoiceModelGPTRealtime       VoiceModel = "gpt_realtime"
	VoiceModelGPTRealtimeMini   VoiceModel = "gpt_realtime_mini"
	VoiceModelGPT4oRealtime     VoiceModel = "gpt_4o_realtime"
	VoiceModelGPT4oMiniRealtime VoiceModel = "gpt_4o_mini_realtime"
)

// DefaultVoiceModel is the dashboard's preselected model
const DefaultVoiceModel = VoiceModelGPT4oRealtime

var voiceModels = map[VoiceModel]bool{
	VoiceModelGPTRealtime:       true,
	VoiceModelGPTRealtimeMini:   true,
	VoiceModelGPT4oRealtime:     true,
	VoiceModelGPT4oMiniRealtime: true,
}

// String returns the string representation
func (m VoiceModel) String() string {
	return string(m)
}

// IsValid checks if the model is a known voice model
func (m VoiceModel) IsValid() bool {
	return voiceModels[m]
}

// VoiceModels returns every known voice model in key order
func VoiceModels() []VoiceModel {
	out := make([]VoiceModel, 0, len(voiceModels))
	for m := range voiceModels {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EmailModel is the closed set of text models an email agent can run on.
type EmailModel string

const (
	EmailModelGPT4o     EmailModel = "gpt_4o"
	EmailModelGPT4oMini EmailModel = "gpt_4o_mini"
	EmailModelGPT41     EmailModel = "gpt_4_1"
	EmailModelGPT41Mini EmailModel = "gpt_4_1_mini"
)

// DefaultEmailModel is the cheapest general-purpose email model
const DefaultEmailModel = EmailModelGPT4oMini

var emailModels = map[EmailModel]bool{
	EmailModelGPT4o:     true,
	EmailModelGPT4oMini: true,
	EmailModelGPT41:     true,
	EmailModelGPT41Mini: true,
}

// String returns the string representation
func (m EmailModel) String() string {
	return string(m)
}

// IsValid checks if the model is a known email model
func (m EmailModel) IsValid() bool {
	return emailModels[m]
}

// EmailModels returns every known email model in key order
func EmailModels() []EmailModel {
	out := make([]EmailModel, 0, len(emailModels))
	for m := range emailModels {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NormalizeModelKey accepts "GPT-4o-Realtime" style input and returns the
// catalog key form ("gpt_4o_realtime").
func NormalizeModelKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(s)
}
