// Package logs reads daemon log files for the mvndd logs command.
//
// Last returns the trailing lines of a file and the offset where it ends;
// Follow then polls from that offset and hands every complete line appended
// afterwards to a callback until its context is canceled. A partially written
// final line is held back until its newline arrives. A file that shrinks below
// the current offset is treated as rotated and read again from the start.
package logs
