package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain",
}

// APIResponse is the envelope used by every endpoint of the REST API:
// {success, data?, message?}.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Add("Content-Type", contentType)
	}

	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteResponseBytesOK(w http.ResponseWriter, contentType string, message []byte) {
	WriteResponseBytes(w, contentType, message, http.StatusOK)
}

func WriteJSONResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.JSON, message, http.StatusOK)
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

// WriteAPIData writes a successful envelope with the given payload.
func WriteAPIData(w http.ResponseWriter, data any, statusCode int) {
	writeAPIResponse(w, APIResponse{Success: true, Data: data}, statusCode)
}

// WriteAPIDataMessage is WriteAPIData with an additional human-readable message.
func WriteAPIDataMessage(w http.ResponseWriter, data any, message string, statusCode int) {
	writeAPIResponse(w, APIResponse{Success: true, Data: data, Message: message}, statusCode)
}

// WriteAPIError writes a failed envelope: {success:false, message}.
func WriteAPIError(w http.ResponseWriter, message string, statusCode int) {
	writeAPIResponse(w, APIResponse{Success: false, Message: message}, statusCode)
}

func writeAPIResponse(w http.ResponseWriter, resp APIResponse, statusCode int) {
	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("failed to marshal api response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respJson, statusCode)
}
