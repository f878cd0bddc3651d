// Package recordstore persists bibliographic records in a SQLite file keyed by
// ISBN.
//
// The file is a conventional SQLite database: the records table maps each
// ISBN to its JSON-encoded record, and the books view flattens the fields for
// other tools. Writers hold an exclusive advisory lock (<store>.lock) for the
// lifetime of the Store; readers take a shared lock. Close checkpoints the WAL
// so the main database file is self-contained after every run.
package recordstore
