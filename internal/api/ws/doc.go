// Package ws serves the websocket control feed.
//
// A client sends {"type":"command","command":"mojo:app --flag"} frames;
// each is written as one datagram into the control pipe and acknowledged
// with {"type":"accepted"}. The command runs asynchronously on the
// manager's loop, so acceptance says nothing about launch success.
package ws
