package gopher

import "errors"

// Errors returned by Protocol.Read and Protocol.Write.
//
// Every one of them is fatal for the connection it occurred on and for that
// connection only. They are wrapped with context, so compare with errors.Is:
//
//	sel, err := proto.Read(conn)
//	if errors.Is(err, gopher.ErrUnfinishedBusiness) {
//	    // client hung up mid-request
//	}
var (
	// ErrLineTooBig indicates the selector or its extra exceeded the maximum line length.
	ErrLineTooBig = errors.New("line too big")

	// ErrParseLine indicates the selector bytes were not valid UTF-8.
	ErrParseLine = errors.New("selector is not valid UTF-8")

	// ErrUnfinishedBusiness indicates the stream ended before the line terminator.
	ErrUnfinishedBusiness = errors.New("stream ended while parsing")

	// ErrIO indicates a transport failure, including read and write deadline expiry.
	ErrIO = errors.New("i/o failure")
)
