// Package bibxml extracts bibliographic records from namespace-qualified
// OpenSearch XML responses.
//
// Namespace prefixes are supplied at construction time rather than held in
// package state; DefaultNamespaces returns the Dublin Core and NDL terms
// bindings used by the National Diet Library feed.
package bibxml
