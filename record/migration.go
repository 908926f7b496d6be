package record

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger"
)

const dbVersion = 1

var versionKey = []byte("rec:version")

// MigrationError is returned when the transcript was written by a newer
// version and can't be opened.
type MigrationError struct {
	OldVersion int
	NewVersion int
	Path       string
	Cause      error
}

func (err MigrationError) Error() string {
	return fmt.Sprintf("transcript migration error: failed to migrate from version %d to %d at path %q: %s", err.OldVersion, err.NewVersion, err.Path, err.Cause)
}

func (err MigrationError) Unwrap() error {
	return err.Cause
}

// migrate brings the database to dbVersion. Version 0 is an empty database.
func migrate(db *badger.DB, path string) error {
	return db.Update(func(txn *badger.Txn) error {
		version, err := getVersion(txn)
		if err != nil {
			return MigrationError{version, dbVersion, path, err}
		}
		if version == dbVersion {
			return nil
		}
		if version > dbVersion {
			return MigrationError{version, dbVersion, path, errors.New("database is newer than the supported version")}
		}
		return setVersion(txn, dbVersion)
	})
}

func getVersion(txn *badger.Txn) (int, error) {
	var version int
	if err := getItem(txn, versionKey, &version); err != nil && err != badger.ErrKeyNotFound {
		return version, err
	}
	return version, nil
}

func setVersion(txn *badger.Txn, version int) error {
	return setItem(txn, versionKey, &version)
}
