// Package zbarcam drives the zbarcam barcode scanner as a child process and
// exposes its stdout as a lazily read line sequence. Profiles map to the
// scanner arguments each camera setup needs; termination escalates from
// SIGTERM to SIGKILL because zbarcam does not reliably exit on its own.
package zbarcam
