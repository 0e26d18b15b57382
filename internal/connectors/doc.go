// Package connectors provides implementations of the Connector interface.
// A connector knows how to fetch mail-export documents from a source; the
// filesystem connector walking a directory tree is the production one.
package connectors
