// Package ncco builds Nexmo Call Control Objects: the JSON action arrays
// returned from answer webhooks that tell the provider how to drive a
// live call.
package ncco

// Talk is a speech-synthesis action. Text may contain SSML, including
// phoneme pronunciation hints.
type Talk struct {
	Action    string `json:"action"`
	Text      string `json:"text"`
	VoiceName string `json:"voiceName"`
}

// Record starts recording the call. The provider POSTs the recording
// metadata to each URL in EventURL once the audio is available.
type Record struct {
	Action       string   `json:"action"`
	BeepStart    bool     `json:"beepStart"`
	EventURL     []string `json:"eventUrl"`
	EndOnSilence int      `json:"endOnSilence"`
}

// answerGreeting is the fixed greeting read to callers. The phoneme hint
// keeps the synthesised name pronunciation intact.
const answerGreeting = "<speak>You have reached <phoneme alphabet='ipa' ph='əʊlɛgz'>Oleg's</phoneme> pizza. Please leave a message after the beep.</speak>"

// answerVoice is the synthesis voice used for the greeting.
const answerVoice = "Brian"

// endOnSilenceSecs is how many seconds of trailing silence end the
// recording.
const endOnSilenceSecs = 3

// AnswerMachine returns the two-step answering-machine script: read the
// greeting, then record the caller's message and deliver it to eventURL.
func AnswerMachine(eventURL string) []any {
	return []any{
		Talk{
			Action:    "talk",
			Text:      answerGreeting,
			VoiceName: answerVoice,
		},
		Record{
			Action:       "record",
			BeepStart:    true,
			EventURL:     []string{eventURL},
			EndOnSilence: endOnSilenceSecs,
		},
	}
}
