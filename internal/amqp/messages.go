package amqp

import (
	"encoding/json"
	"time"
)

// SyncMessage asks the backup worker to mirror one expense. It carries
// only the id and version; the worker reads the row itself, so a stale
// message never overwrites newer data.
type SyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(id, version int64) *SyncMessage {
	return &SyncMessage{ID: id, Version: version, Timestamp: time.Now()}
}

func (m *SyncMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

func DecodeSyncMessage(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
