package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/hb9tf/spectrelay/sweep"
)

// The schema sticks to types and identifiers both sqlite3 and MySQL accept.
var createTableTmpls = []string{
	`CREATE TABLE IF NOT EXISTS sweeps (
		ID              VARCHAR(36) NOT NULL PRIMARY KEY,
		DeviceID        VARCHAR(255),
		DeviceTimestamp DOUBLE,
		FreqBegin       DOUBLE,
		FreqEnd         DOUBLE,
		FreqSteps       BIGINT,
		SampleCount     BIGINT,
		ReceivedAt      BIGINT
	);`,
	`CREATE TABLE IF NOT EXISTS sweep_samples (
		SweepID   VARCHAR(36) NOT NULL,
		Position  BIGINT NOT NULL,
		Freq      DOUBLE,
		RSSI      DOUBLE,
		PRIMARY KEY (SweepID, Position)
	);`,
}

const (
	insertSweepTmpl = `INSERT INTO sweeps (
		ID,
		DeviceID,
		DeviceTimestamp,
		FreqBegin,
		FreqEnd,
		FreqSteps,
		SampleCount,
		ReceivedAt
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	insertSampleTmpl = `INSERT INTO sweep_samples (
		SweepID,
		Position,
		Freq,
		RSSI
	) VALUES (?, ?, ?, ?);`
)

// SQL archives sweeps into a sqlite3 or MySQL database. Nothing reads them back.
type SQL struct {
	DB *sql.DB
}

func (s *SQL) Write(ctx context.Context, sweeps <-chan *sweep.Sweep) error {
	if err := createTablesIfNotExist(ctx, s.DB); err != nil {
		return fmt.Errorf("unable to create tables: %w", err)
	}

	counts := newCounts()
	for sw := range sweeps {
		counts["total"] += 1
		if _, err := insertSweep(ctx, s.DB, sw); err != nil {
			counts["error"] += 1
			glog.Warningf("error storing sweep in DB: %s\n", err)
			continue
		}
		counts["success"] += 1
		if counts["total"]%countInfo == 0 {
			glog.Infof("Sweep export counts: %+v\n", counts)
		}
	}

	return nil
}

func createTablesIfNotExist(ctx context.Context, db *sql.DB) error {
	for _, tmpl := range createTableTmpls {
		if _, err := db.ExecContext(ctx, tmpl); err != nil {
			return err
		}
	}
	return nil
}

// insertSweep stores the sweep and its samples in one transaction and returns its new ID.
func insertSweep(ctx context.Context, db *sql.DB, s *sweep.Sweep) (string, error) {
	id := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var receivedAt *int64
	if !s.ReceivedAt.IsZero() {
		ms := s.ReceivedAt.UnixMilli()
		receivedAt = &ms
	}
	if _, err := tx.ExecContext(ctx, insertSweepTmpl, id, s.DeviceID, s.Timestamp, s.FrequencyStart, s.FrequencyEnd, s.StepCount, s.SampleCount(), receivedAt); err != nil {
		return "", fmt.Errorf("inserting sweep: %w", err)
	}

	statement, err := tx.PrepareContext(ctx, insertSampleTmpl)
	if err != nil {
		return "", err
	}
	defer statement.Close()
	for i, sample := range s.Samples {
		if _, err := statement.ExecContext(ctx, id, i, sample.Frequency, sample.SignalStrength); err != nil {
			return "", fmt.Errorf("inserting sample %d: %w", i, err)
		}
	}

	return id, tx.Commit()
}
