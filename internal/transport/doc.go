// Package transport carries IPC handles across an OS process boundary.
//
// A message pipe end is bridged to a unix SOCK_SEQPACKET socket: every
// message becomes one datagram and the handles it carries travel as file
// descriptors over SCM_RIGHTS. Handles are re-created on the far side:
//   - message pipes get their own SEQPACKET socket pair
//   - data pipes become SOCK_STREAM socket pairs pumped in each process
//   - shared buffers become memfd snapshots mapped on the receiving side
//
// Closing either end of a bridge closes the socket, which the other
// process observes as peer closure on its end of the pipe.
//
// Example Usage:
//
//	// parent
//	file, err := transport.Export(core, request, logger)
//	cmd.ExtraFiles = []*os.File{file}
//
//	// child
//	request, err := transport.Import(core, os.NewFile(3, "startup"), logger)
package transport
