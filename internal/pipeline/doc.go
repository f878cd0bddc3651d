// Package pipeline walks one bookscan run: select the acquisition mode,
// acquire an ISBN (camera or literal argument), fetch the lookup response,
// parse it into a record, and store it.
//
// Each step is reached through a small interface so the run can be exercised
// end to end with in-memory collaborators.
package pipeline
