// ABOUTME: Maps API failures to messages shown in the conversation
// ABOUTME: Matches on status codes and well-known error text
package gemini

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/cognira/velmora-go/pkg/chat"
)

const (
	msgInvalidKey  = "The API key is invalid or has insufficient permissions. Please check your API key settings."
	msgKeyNotFound = "API Key error. Please re-select your API key and try again. This can happen if the key is not valid for the video generation model, or lacks necessary permissions."
	msgRateLimit   = "You have exceeded your request limit for the API. Please wait a while before trying again."
	msgBadFormat   = "There was a problem with the request's format. Please try rephrasing your message or checking the uploaded file."
	msgNetwork     = "A network connection error occurred. Please check your internet connection and try again."
	msgBadRequest  = "There was a problem with your request (Bad Request). Please check your prompt and any uploaded files for issues and try again. The content may have been blocked."
	msgServer      = "The AI service is currently experiencing a temporary issue (Server Error). Please try again in a few moments."
	msgUnexpected  = "An unexpected error occurred while processing your request. If the problem persists, please check the logs for more details."

	maxShownError = 150
)

var transportTag = regexp.MustCompile(`\[\w+/\w+\]\s*`)

// responseError wraps err in a chat.ResponseError with a readable message
func responseError(err error) error {
	return &chat.ResponseError{Message: userMessage(err), Err: err}
}

func userMessage(err error) string {
	text := err.Error()
	code := statusCode(err)

	switch {
	case strings.Contains(text, "API_KEY_INVALID"), strings.Contains(strings.ToLower(text), "permission_denied"),
		code == http.StatusUnauthorized, code == http.StatusForbidden:
		return msgInvalidKey
	case strings.Contains(text, "Requested entity was not found"):
		return msgKeyNotFound
	case strings.Contains(text, "rate limit"), code == http.StatusTooManyRequests:
		return msgRateLimit
	case strings.Contains(text, "ContentUnion is required"):
		return msgBadFormat
	case strings.Contains(text, "Rpc failed"):
		return msgNetwork
	case code == http.StatusBadRequest, strings.Contains(text, "[400]"):
		return msgBadRequest
	case code == http.StatusInternalServerError, code == http.StatusServiceUnavailable,
		strings.Contains(text, "[500]"), strings.Contains(text, "[503]"):
		return msgServer
	}

	if clean := transportTag.ReplaceAllString(text, ""); clean != "" && len(clean) < maxShownError {
		return "An unexpected error occurred: " + clean
	}
	return msgUnexpected
}

func statusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
