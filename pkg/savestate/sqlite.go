/*
   Retrix - multi-platform emulator front-end
   Copyright (c) 2022, The Retrix Authors

   This file is part of Retrix.

   Retrix is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   Retrix is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with Retrix. If not, see <http://www.gnu.org/licenses/>.
*/

package savestate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//
const schema = `
	CREATE TABLE IF NOT EXISTS save_states (
		game_id  TEXT    NOT NULL,
		slot     INTEGER NOT NULL CHECK(slot >= 1),
		data     BLOB    NOT NULL,
		modified INTEGER NOT NULL,
		PRIMARY KEY (game_id, slot)
	);
	`

/*
	NewSQLiteStore creates a store backed by the SQLite database in file, which
	is created if it does not exist. Use ":memory:" for a volatile store.
*/
func NewSQLiteStore(file string) (*SQLiteStore, error) {

	if file != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, err
	}

	// an in-memory database only lives as long as its connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create save state schema: %v", err)
	}

	log.WithField("database", file).Debug("save state database opened")
	return &SQLiteStore{db: db}, nil
}

//
type SQLiteStore struct {
	db *sql.DB
}

//
func (s *SQLiteStore) Save(ctx context.Context, gameID string, slot int,
	data []byte) error {

	if err := validate(gameID, slot); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO save_states (game_id, slot, data, modified)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (game_id, slot)
		DO UPDATE SET data = excluded.data, modified = excluded.modified`,
		gameID, slot, data, time.Now().UnixNano())

	if err == nil {
		log.WithFields(log.Fields{
			"game": gameID, "slot": slot, "size": len(data)}).Debug("state saved")
	}
	return err
}

//
func (s *SQLiteStore) Load(ctx context.Context, gameID string,
	slot int) ([]byte, error) {

	if err := validate(gameID, slot); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM save_states WHERE game_id = ? AND slot = ?",
		gameID, slot).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: game %s, slot %d", ErrNoState, gameID, slot)
	}
	return data, err
}

//
func (s *SQLiteStore) Slots(ctx context.Context, gameID string) ([]Slot, error) {

	if err := validate(gameID, 1); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT slot, length(data), modified FROM save_states
		WHERE game_id = ? ORDER BY slot`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret []Slot
	for rows.Next() {
		var slot Slot
		var modified int64
		if err := rows.Scan(&slot.Number, &slot.Size, &modified); err != nil {
			return nil, err
		}
		slot.Modified = time.Unix(0, modified)
		ret = append(ret, slot)
	}

	return ret, rows.Err()
}

//
func (s *SQLiteStore) Delete(ctx context.Context, gameID string, slot int) error {
	if err := validate(gameID, slot); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM save_states WHERE game_id = ? AND slot = ?", gameID, slot)
	return err
}

//
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
