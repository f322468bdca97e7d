// Package commands implements the secdb command line: serving a data file
// over HTTP, inspecting it locally or through a running server, and
// managing the users file.
package commands
