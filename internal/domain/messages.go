package domain

// Session protocol message types.
const (
	MsgPrompt     = "prompt"
	MsgAuthResult = "authResult"
	MsgWaiting    = "waiting"
	MsgStart      = "start"
	MsgQuestion   = "question"
	MsgResult     = "result"
	MsgComplete   = "complete"
	MsgError      = "error"

	MsgCredential = "credential"
	MsgAnswer     = "answer"
)

// Prompt fields.
const (
	FieldID     = "id"
	FieldSecret = "secret"
)

// Outbound is a message the coordinator sends to a participant.
type Outbound struct {
	Type    string
	Payload any
}

// Inbound is a decoded participant message. Value carries credentials, Option carries answers.
type Inbound struct {
	Type   string
	Value  string
	Option int
}

type PromptPayload struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

type AuthResultPayload struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type NoticePayload struct {
	Message string `json:"message"`
}

type StartPayload struct {
	Message         string `json:"message"`
	Total           int    `json:"total"`
	DurationSeconds int    `json:"durationSeconds"`
}

type QuestionPayload struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type ResultPayload struct {
	Percent int `json:"percent"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
