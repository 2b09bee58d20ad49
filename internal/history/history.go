// Package history keeps an append-only JSONL log of evaluation
// summaries. Records are hash-chained so after-the-fact edits to the
// log are detectable.
package history

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/jsonutil"
	"github.com/scorebox-project/scorebox/pkg/model"
	"github.com/scorebox-project/scorebox/pkg/uuidutil"
)

const logFileName = "history.jsonl"

// Record is one evaluation summary in the log. The full report is not
// stored; the digest ties the record to the exact scoring content.
type Record struct {
	Timestamp     time.Time `json:"timestamp"`
	RunID         string    `json:"run_id"`
	Trigger       string    `json:"trigger"` // startup, interval, manual
	CurrentPoints int       `json:"current_points"`
	MaxPoints     int       `json:"max_points"`
	ItemCount     int       `json:"item_count"`
	ReportDigest  string    `json:"report_digest"`
	PrevHash      string    `json:"prev_hash,omitempty"`
	RecordHash    string    `json:"record_hash,omitempty"`
}

// Log appends hash-chained records to <stateDir>/history.jsonl.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog returns a log rooted at stateDir.
func NewLog(stateDir string) *Log {
	return &Log{path: filepath.Join(stateDir, logFileName)}
}

// Append records one evaluation summary, chaining it to the previous
// record. A run id is assigned here.
func (l *Log) Append(trigger string, report *model.Report, digest string) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, errclass.ErrStorage.WithMessagef("create history dir: %v", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errclass.ErrStorage.WithMessagef("open history log: %v", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return nil, errclass.ErrStorage.WithMessagef("lock history log: %v", err)
	}
	defer unlockFile(file)

	prevHash, err := lastRecordHash(file)
	if err != nil {
		return nil, err
	}

	record := &Record{
		Timestamp:     time.Now().UTC(),
		RunID:         uuidutil.NewV4(),
		Trigger:       trigger,
		CurrentPoints: report.CurrentPoints,
		MaxPoints:     report.MaxPoints,
		ItemCount:     len(report.Items),
		ReportDigest:  digest,
		PrevHash:      prevHash,
	}
	hash, err := recordHash(record)
	if err != nil {
		return nil, err
	}
	record.RecordHash = hash

	line, err := json.Marshal(record)
	if err != nil {
		return nil, errclass.ErrStorage.WithMessagef("encode history record: %v", err)
	}
	if _, err := file.Seek(0, 2); err != nil {
		return nil, errclass.ErrStorage.WithMessagef("seek history log: %v", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return nil, errclass.ErrStorage.WithMessagef("write history record: %v", err)
	}
	if err := file.Sync(); err != nil {
		return nil, errclass.ErrStorage.WithMessagef("sync history log: %v", err)
	}
	return record, nil
}

// List returns all records in append order. A missing log is empty, not
// an error.
func (l *Log) List() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAll()
}

func (l *Log) readAll() ([]Record, error) {
	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errclass.ErrStorage.WithMessagef("open history log: %v", err)
	}
	defer file.Close()

	// A shared flock keeps a concurrent append in another process from
	// being scanned mid-write as a torn record.
	if err := lockFileShared(file); err != nil {
		return nil, errclass.ErrStorage.WithMessagef("lock history log: %v", err)
	}
	defer unlockFile(file)

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, errclass.ErrHistoryChainBroken.WithMessagef("malformed record at line %d", len(records)+1)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errclass.ErrStorage.WithMessagef("scan history log: %v", err)
	}
	return records, nil
}

// Verify walks the chain and recomputes every record hash. Any edit,
// removal or reordering of past records breaks verification.
func (l *Log) Verify() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readAll()
	if err != nil {
		return 0, err
	}

	prevHash := ""
	for i, rec := range records {
		if rec.PrevHash != prevHash {
			return i, errclass.ErrHistoryChainBroken.WithMessagef("record %d prev-hash mismatch", i)
		}
		want, err := recordHash(&rec)
		if err != nil {
			return i, err
		}
		if rec.RecordHash != want {
			return i, errclass.ErrHistoryChainBroken.WithMessagef("record %d content hash mismatch", i)
		}
		prevHash = rec.RecordHash
	}
	return len(records), nil
}

func lastRecordHash(file *os.File) (string, error) {
	if _, err := file.Seek(0, 0); err != nil {
		return "", errclass.ErrStorage.WithMessagef("seek history log: %v", err)
	}
	last := ""
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		last = rec.RecordHash
	}
	if err := scanner.Err(); err != nil {
		return "", errclass.ErrStorage.WithMessagef("scan history log: %v", err)
	}
	return last, nil
}

func recordHash(rec *Record) (string, error) {
	unhashed := *rec
	unhashed.RecordHash = ""
	data, err := jsonutil.CanonicalMarshal(&unhashed)
	if err != nil {
		return "", errclass.ErrStorage.WithMessagef("canonical marshal: %v", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
