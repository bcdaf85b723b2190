package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogEntry_Locked(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		entry LogEntry
		want  bool
	}{
		{
			"fresh tentative",
			LogEntry{MessageType: MsgLockTentative, Timestamp: now.Add(-time.Minute)},
			true,
		},
		{
			"expired tentative",
			LogEntry{MessageType: MsgLockTentative, Timestamp: now.Add(-10 * time.Minute)},
			false,
		},
		{
			"started with recent heartbeat",
			LogEntry{MessageType: MsgStarted, Timestamp: now.Add(-time.Hour), HeartbeatTimestamp: now.Add(-30 * time.Second)},
			true,
		},
		{
			"started with stale heartbeat",
			LogEntry{MessageType: MsgStarted, Timestamp: now.Add(-time.Hour), HeartbeatTimestamp: now.Add(-6 * time.Minute)},
			false,
		},
		{
			"started without heartbeat falls back to timestamp",
			LogEntry{MessageType: MsgStarted, Timestamp: now.Add(-time.Minute)},
			true,
		},
		{
			"terminal record frees the slot regardless of age",
			LogEntry{MessageType: MsgCompleted, Timestamp: now},
			false,
		},
		{
			"failed record frees the slot",
			LogEntry{MessageType: MsgFailed, Timestamp: now},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Locked(now))
		})
	}
}

func TestWireRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := LogEntry{
		ID:              "01HX",
		AliasIndex:      "sentryscreen-entities",
		Index:           "sentryscreen-entities-default-0011",
		Dataset:         "default",
		DatasetVersion:  "20240301000000",
		SoftwareVersion: "dev",
		MessageType:     MsgStarted,
		ReindexType:     ReindexFull,
		WriterID:        "writer-a",
		Timestamp:       ts,
	}

	wire := entry.toWire()
	// a missing heartbeat inherits the write timestamp so Locked never
	// sees a zero heartbeat on a STARTED record
	assert.Equal(t, ts.UnixMilli(), wire.HeartbeatTimestamp)

	back := fromFields("01HX", map[string]any{
		"alias_index":         wire.AliasIndex,
		"index":               wire.Index,
		"dataset":             wire.Dataset,
		"dataset_version":     wire.DatasetVersion,
		"software_version":    wire.SoftwareVersion,
		"message_type":        wire.MessageType,
		"reindex_type":        wire.ReindexType,
		"writer_id":           wire.WriterID,
		"timestamp":           float64(wire.Timestamp),
		"heartbeat_timestamp": float64(wire.HeartbeatTimestamp),
	})
	assert.Equal(t, entry.Index, back.Index)
	assert.Equal(t, MsgStarted, back.MessageType)
	assert.True(t, back.Timestamp.Equal(ts))
}
