// ABOUTME: Live API wire message definitions
// ABOUTME: JSON shapes of the BidiGenerateContent websocket protocol
package protocol

import (
	"strings"

	"github.com/cognira/velmora-go/pkg/live"
)

// ClientMessage is sent from the client. Exactly one field is set.
type ClientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
}

// Setup configures the session and must be the first message
type Setup struct {
	Model                    string                    `json:"model"`
	GenerationConfig         *GenerationConfig         `json:"generationConfig,omitempty"`
	SystemInstruction        *Content                  `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *AudioTranscriptionConfig `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *AudioTranscriptionConfig `json:"outputAudioTranscription,omitempty"`
}

// GenerationConfig selects output modalities and voice
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

type SpeechConfig struct {
	VoiceConfig VoiceConfig `json:"voiceConfig"`
}

type VoiceConfig struct {
	PrebuiltVoiceConfig PrebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// AudioTranscriptionConfig enables transcription; it has no options
type AudioTranscriptionConfig struct{}

// Content is a list of parts with an optional role
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part carries text or inline binary data
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob is inline binary data; Data is base64 on the wire
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// RealtimeInput streams user media
type RealtimeInput struct {
	Audio *Blob `json:"audio,omitempty"`
}

// ServerMessage is received from the server
type ServerMessage struct {
	SetupComplete *SetupComplete `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	GoAway        *GoAway        `json:"goAway,omitempty"`
}

type SetupComplete struct{}

// ServerContent carries model output and transcriptions
type ServerContent struct {
	ModelTurn           *Content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	GenerationComplete  bool           `json:"generationComplete,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

type Transcription struct {
	Text string `json:"text"`
}

// GoAway warns that the server will disconnect soon
type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// Event converts server content to a session event. Only the first part's
// inline audio is used.
func (sc *ServerContent) Event() live.InboundEvent {
	ev := live.InboundEvent{
		Interrupted:  sc.Interrupted,
		TurnComplete: sc.TurnComplete,
	}
	if sc.ModelTurn != nil && len(sc.ModelTurn.Parts) > 0 && sc.ModelTurn.Parts[0].InlineData != nil {
		ev.Audio = sc.ModelTurn.Parts[0].InlineData.Data
	}
	if sc.InputTranscription != nil {
		ev.UserText = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		ev.ModelText = sc.OutputTranscription.Text
	}
	return ev
}

// NewSetup builds the setup message for an audio conversation with both transcriptions enabled
func NewSetup(model, voice, systemPrompt string) *Setup {
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	setup := &Setup{
		Model: model,
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
		InputAudioTranscription:  &AudioTranscriptionConfig{},
		OutputAudioTranscription: &AudioTranscriptionConfig{},
	}
	if voice != "" {
		setup.GenerationConfig.SpeechConfig = &SpeechConfig{
			VoiceConfig: VoiceConfig{PrebuiltVoiceConfig: PrebuiltVoiceConfig{VoiceName: voice}},
		}
	}
	if systemPrompt != "" {
		setup.SystemInstruction = &Content{Parts: []Part{{Text: systemPrompt}}}
	}
	return setup
}
