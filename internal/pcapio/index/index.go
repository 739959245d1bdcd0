// Package index keeps a best-effort sqlite side index of a pcap dataset's
// records, so a capture session's contents are queryable without
// re-scanning the pcap file.
package index

import (
	"database/sql"
	"fmt"
	"net"
	"time"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Record is one indexed capture entry.
type Record struct {
	SessionID   string
	Sequence    int64
	CaptureTime time.Time
	Length      int
	SourceAddr  string
}

// Index is a best-effort sqlite index of a capture session's records. It is
// never consulted on the write path's success/failure — a write failure to
// the index must not prevent a packet from reaching the primary pcap
// dataset.
type Index struct {
	db        *sql.DB
	path      string
	sessionID string
}

// Open creates (or opens) the sqlite database at path and applies
// migrations. Each Open starts a fresh capture session identified by a
// random UUID; records from earlier sessions in the same database are
// preserved and distinguishable by their session_id.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	if err := MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db, path: path, sessionID: uuid.New().String()}, nil
}

// SessionID returns the UUID identifying this capture session's rows.
func (idx *Index) SessionID() string {
	return idx.sessionID
}

// Close closes the underlying database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// RecordPacket inserts one capture_records row. The capture timestamp is
// marshaled through google.golang.org/protobuf/types/known/timestamppb
// before storage, reusing the existing protobuf wire type for a stable,
// self-describing timestamp encoding rather than a bespoke one.
func (idx *Index) RecordPacket(sequence int64, captureTime time.Time, length int, sourceAddr *net.UDPAddr) error {
	ts := timestamppb.New(captureTime)
	tsBytes, err := proto.Marshal(ts)
	if err != nil {
		return fmt.Errorf("index: marshal timestamp: %w", err)
	}

	addr := ""
	if sourceAddr != nil {
		addr = sourceAddr.String()
	}

	_, err = idx.db.Exec(
		`INSERT INTO capture_records (session_id, sequence, capture_time, length, source_addr) VALUES (?, ?, ?, ?, ?)`,
		idx.sessionID, sequence, tsBytes, length, addr,
	)
	if err != nil {
		return fmt.Errorf("index: insert record %d: %w", sequence, err)
	}
	return nil
}

// Records returns this session's indexed records in sequence order.
func (idx *Index) Records() ([]Record, error) {
	rows, err := idx.db.Query(
		`SELECT session_id, sequence, capture_time, length, source_addr FROM capture_records WHERE session_id = ? ORDER BY sequence`,
		idx.sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("index: query records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			session string
			seq     int64
			tsBytes []byte
			length  int
			addr    string
		)
		if err := rows.Scan(&session, &seq, &tsBytes, &length, &addr); err != nil {
			return nil, fmt.Errorf("index: scan record: %w", err)
		}
		var ts timestamppb.Timestamp
		if err := proto.Unmarshal(tsBytes, &ts); err != nil {
			return nil, fmt.Errorf("index: unmarshal timestamp for record %d: %w", seq, err)
		}
		out = append(out, Record{SessionID: session, Sequence: seq, CaptureTime: ts.AsTime(), Length: length, SourceAddr: addr})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index: iterate records: %w", err)
	}
	return out, nil
}
