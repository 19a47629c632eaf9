package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShiftSyncMessage asks the worker to push one shift to the spreadsheet.
// It only carries the id; the worker reloads the shift from the database.
type ShiftSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewShiftSyncMessage(id, version int64) *ShiftSyncMessage {
	return &ShiftSyncMessage{
		ID:        id,
		Version:   version,
		MessageID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

func (m *ShiftSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ShiftSyncMessageFromJSON(data []byte) (*ShiftSyncMessage, error) {
	var msg ShiftSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid shift id %d", msg.ID)
	}
	return &msg, nil
}
