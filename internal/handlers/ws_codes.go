// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes. These give more specific reasons for closure than standard codes.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	ReplacedError       = 3001 // The same user opened a newer connection.
	SlowConsumerError   = 3002 // Outbound frames piled up faster than the client read them.
)
