// Package audit implements the audit-log and reindex-lock substrate:
// lifecycle events stored as documents in a dedicated search-backend
// index, and a two-phase tentative-then-started lock acquisition protocol
// that tolerates the backend's lack of cross-document compare-and-swap.
//
// The search backend doubles as the coordination medium, so document
// writes go through internal/indexstore like everything else. Document
// IDs are minted with oklog/ulid/v2 so that "oldest document id" is a
// plain lexicographic comparison.
package audit

import "time"

// MessageType classifies an audit-log document.
type MessageType string

const (
	MsgLockTentative  MessageType = "REINDEX_LOCK_TENTATIVE"
	MsgStarted        MessageType = "REINDEX_STARTED"
	MsgCompleted      MessageType = "REINDEX_COMPLETED"
	MsgFailed         MessageType = "REINDEX_FAILED"
	MsgRolloverDone   MessageType = "INDEX_ALIAS_ROLLOVER_COMPLETE"
)

// ReindexType classifies whether a run was a full rebuild or an
// incremental delta replay.
type ReindexType string

const (
	ReindexFull    ReindexType = "full"
	ReindexPartial ReindexType = "partial"
)

// HeartbeatExpiry is how long a REINDEX_STARTED record may go without a
// heartbeat update before its lock is considered abandoned.
const HeartbeatExpiry = 5 * time.Minute

// HeartbeatInterval is how often a running indexer should refresh its
// heartbeat.
const HeartbeatInterval = 60 * time.Second

// LogEntry is one audit-log document.
type LogEntry struct {
	ID                 string
	AliasIndex         string
	Index              string
	Dataset            string
	DatasetVersion     string
	SoftwareVersion    string
	MessageType        MessageType
	ReindexType        ReindexType
	WriterID           string
	Timestamp          time.Time
	HeartbeatTimestamp time.Time
}

// wireLogEntry is the document shape actually indexed — keyword-typed
// strings plus epoch-millis numerics, matching indexstore.AuditMapping.
type wireLogEntry struct {
	AliasIndex         string `json:"alias_index"`
	Index              string `json:"index"`
	Dataset            string `json:"dataset"`
	DatasetVersion     string `json:"dataset_version"`
	SoftwareVersion    string `json:"software_version"`
	MessageType        string `json:"message_type"`
	ReindexType        string `json:"reindex_type"`
	WriterID           string `json:"writer_id"`
	Timestamp          int64  `json:"timestamp"`
	HeartbeatTimestamp int64  `json:"heartbeat_timestamp"`
}

func (e LogEntry) toWire() wireLogEntry {
	hb := e.HeartbeatTimestamp
	if hb.IsZero() {
		hb = e.Timestamp
	}
	return wireLogEntry{
		AliasIndex:         e.AliasIndex,
		Index:              e.Index,
		Dataset:            e.Dataset,
		DatasetVersion:     e.DatasetVersion,
		SoftwareVersion:    e.SoftwareVersion,
		MessageType:        string(e.MessageType),
		ReindexType:        string(e.ReindexType),
		WriterID:           e.WriterID,
		Timestamp:          e.Timestamp.UnixMilli(),
		HeartbeatTimestamp: hb.UnixMilli(),
	}
}

func fromFields(id string, fields map[string]any) LogEntry {
	return LogEntry{
		ID:                 id,
		AliasIndex:         stringField(fields, "alias_index"),
		Index:              stringField(fields, "index"),
		Dataset:            stringField(fields, "dataset"),
		DatasetVersion:     stringField(fields, "dataset_version"),
		SoftwareVersion:    stringField(fields, "software_version"),
		MessageType:        MessageType(stringField(fields, "message_type")),
		ReindexType:        ReindexType(stringField(fields, "reindex_type")),
		WriterID:           stringField(fields, "writer_id"),
		Timestamp:          millisField(fields, "timestamp"),
		HeartbeatTimestamp: millisField(fields, "heartbeat_timestamp"),
	}
}

func stringField(fields map[string]any, name string) string {
	v, _ := fields[name].(string)
	return v
}

func millisField(fields map[string]any, name string) time.Time {
	switch v := fields[name].(type) {
	case float64:
		return time.UnixMilli(int64(v))
	case int64:
		return time.UnixMilli(v)
	default:
		return time.Time{}
	}
}

// Locked reports whether this entry, if it is the most recent record for
// its index, represents an active lock: a TENTATIVE or STARTED message
// within the heartbeat expiry window.
func (e LogEntry) Locked(now time.Time) bool {
	switch e.MessageType {
	case MsgLockTentative:
		return now.Sub(e.Timestamp) <= HeartbeatExpiry
	case MsgStarted:
		hb := e.HeartbeatTimestamp
		if hb.IsZero() {
			hb = e.Timestamp
		}
		return now.Sub(hb) <= HeartbeatExpiry
	default:
		return false
	}
}
