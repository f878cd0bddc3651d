// Package main hosts the bookscan CLI entrypoint and command graph.
//
// The root command runs one scan: it picks the acquisition mode from its
// argument, reads an ISBN from the camera (or takes it literally), looks the
// book up, and upserts the record into the local store. Subcommands inspect
// stored records, check the host for required tooling, and scaffold
// configuration.
//
// Keep this package lean: wiring and rendering live here, behaviour lives in
// the internal packages.
package main
