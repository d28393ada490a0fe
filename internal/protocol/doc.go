// Package protocol defines the messages exchanged between the application
// manager and applications over message pipes.
//
// Every message is an Envelope naming the method, with a sonic-encoded
// body. Handles ride alongside the bytes; body fields that refer to a
// handle hold its index in the message's handle list, or NoHandle.
//
// Interfaces:
//   - Application: Initialize, AcceptConnection, RequestQuit
//   - Shell: ConnectToApplication
//   - ServiceProvider: ConnectToService
//   - ContentHandler: StartApplication
//   - ICUDataProvider: ICUDataWithSha1 and its response
package protocol
