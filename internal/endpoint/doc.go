// Package endpoint maps observed request URLs to configured endpoint identities.
//
// Every endpoint is either a literal URL or a regular expression. Resolution is
// first-match-wins in configuration order; URLs that match nothing resolve to
// GlobalKey so their outcomes are still aggregated somewhere.
package endpoint
