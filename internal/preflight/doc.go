// Package preflight provides readiness checks for the directories, devices,
// tools, and services bookscan depends on.
//
// The CLI "bookscan doctor" command runs RunAll and CheckSystemDeps and
// renders the results; camera runs call CheckSystemDeps first so a missing
// zbarcam fails fast instead of surfacing as an empty scan.
package preflight
