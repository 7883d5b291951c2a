// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reconcile

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/PedroGGomess/lions-clube-gaia/store"
)

const (
	entryMessage = "credential consumed without vote"

	keyElectionID   = "election_id"
	keyCredentialID = "credential_id"
)

// Entry identifies a credential that was consumed while its vote was not
// stored. Entries never carry the choice.
type Entry struct {
	ElectionID   string `json:"election_id"`
	CredentialID string `json:"credential_id"`
	Error        string `json:"error,omitempty"`
}

// Journal is an append-only JSON lines file for operator follow-up.
type Journal struct {
	log    *zap.Logger
	closer io.Closer
}

// Open appends to the journal file at path, creating it if needed.
func Open(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open reconciliation journal: %w", err)
	}

	j := New(zapcore.AddSync(f))
	j.closer = f
	return j, nil
}

// New writes journal entries to w.
func New(w zapcore.WriteSyncer) *Journal {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), w, zapcore.ErrorLevel)
	return &Journal{log: zap.New(core)}
}

// Record appends e and flushes it.
func (j *Journal) Record(e Entry) {
	j.log.Error(entryMessage,
		zap.String(keyElectionID, e.ElectionID),
		zap.String(keyCredentialID, e.CredentialID),
		zap.String("error", e.Error),
	)
	_ = j.log.Sync()
}

func (j *Journal) Close() error {
	_ = j.log.Sync()
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

// Read parses journal lines written by Record.
func Read(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var raw struct {
			Message string `json:"message"`
			Entry
		}
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		if raw.Message != entryMessage {
			continue
		}
		entries = append(entries, raw.Entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	return entries, nil
}

// Resetter returns a consumed credential to unconsumed. It fails with
// store.ErrNotFound when the credential is missing or not consumed.
type Resetter interface {
	ResetConsumed(ctx context.Context, id string) error
}

// Report summarizes a Resolve run.
type Report struct {
	Reset   int
	Skipped int
	Failed  []Entry
}

// Resolve resets every credential named in the journal so its holder can
// vote again. Credentials that are already unconsumed are skipped.
func Resolve(ctx context.Context, entries []Entry, r Resetter) Report {
	var rep Report
	for _, e := range entries {
		err := r.ResetConsumed(ctx, e.CredentialID)
		switch {
		case err == nil:
			rep.Reset++
		case errors.Is(err, store.ErrNotFound):
			rep.Skipped++
		default:
			e.Error = err.Error()
			rep.Failed = append(rep.Failed, e)
		}
	}
	return rep
}
