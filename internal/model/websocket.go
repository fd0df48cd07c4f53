package model

// WebSocket message types
const (
	WSMessageTypeStage    = "stage"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSStageMessage announces a stage ledger transition
type WSStageMessage struct {
	Type          string      `json:"type"`
	ApplicationID string      `json:"applicationId"`
	Stage         StageRecord `json:"stage"`
}

// WSCompleteMessage announces pipeline completion
type WSCompleteMessage struct {
	Type          string        `json:"type"`
	ApplicationID string        `json:"applicationId"`
	Progress      []StageRecord `json:"progressDetails"`
}

// WSErrorMessage announces a pipeline error
type WSErrorMessage struct {
	Type          string  `json:"type"`
	ApplicationID string  `json:"applicationId"`
	Error         WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
