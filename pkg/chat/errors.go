// ABOUTME: Error values for chat turns
// ABOUTME: Responder failures carry a message shown as the model's reply
package chat

import "errors"

var (
	// ErrEmptyMessage is returned when a turn has neither text nor attachment
	ErrEmptyMessage = errors.New("empty message")

	// ErrSummarization means compaction failed and the turn was not sent
	ErrSummarization = errors.New("summarization failed")

	// ErrResponse marks a failed model response
	ErrResponse = errors.New("model response failed")

	// ErrMessageNotFound is returned by Edit and Report for unknown ids
	ErrMessageNotFound = errors.New("message not found")

	// ErrConversationNotFound is returned by Library for unknown ids
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrFileTooLarge is returned for video attachments above MaxVideoBytes
	ErrFileTooLarge = errors.New("attachment too large")
)

const unknownErrorText = "An unknown error occurred."

// ResponseError is a responder failure with a user-facing message.
// It matches ErrResponse and the underlying cause with errors.Is.
type ResponseError struct {
	Message string
	Err     error
}

func (e *ResponseError) Error() string {
	return e.Message
}

func (e *ResponseError) Unwrap() []error {
	return []error{ErrResponse, e.Err}
}

// replyText renders a responder failure as the text of a model message
func replyText(err error) string {
	var re *ResponseError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownErrorText
}
