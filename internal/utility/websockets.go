package utility

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Simple hub to hold active connections: Map[DoctorID] -> Connection
var (
	AlertClients   = make(map[string]*websocket.Conn)
	AlertClientsMu sync.Mutex // Mutex to prevent race conditions
	Upgrader       = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Allow CORS for development
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

// Register a new doctor connection
func RegisterAlertClient(doctorID string, conn *websocket.Conn) {
	AlertClientsMu.Lock()
	defer AlertClientsMu.Unlock()
	AlertClients[doctorID] = conn
	log.Info().Str("doctor_id", doctorID).Msg("WebSocket client connected")
}

// Unregister a doctor connection (when they close the tab)
func UnregisterAlertClient(doctorID string) {
	AlertClientsMu.Lock()
	defer AlertClientsMu.Unlock()
	if _, ok := AlertClients[doctorID]; ok {
		delete(AlertClients, doctorID)
		log.Info().Str("doctor_id", doctorID).Msg("WebSocket client disconnected")
	}
}

// PushDoctorAlert sends a JSON payload to a specific doctor if connected.
func PushDoctorAlert(doctorID string, payload interface{}) {
	AlertClientsMu.Lock()
	defer AlertClientsMu.Unlock()

	conn, ok := AlertClients[doctorID]
	if !ok {
		return
	}

	msg, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal alert payload")
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Error().Err(err).Msg("Failed to send WS message, removing client")
		conn.Close()
		delete(AlertClients, doctorID)
	}
}
