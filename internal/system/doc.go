// Package system is the IPC primitive layer applications and the manager
// program against.
//
// It wraps the native kernel object model with typed operations and a
// single error taxonomy. Every operation translates native statuses through
// its own table, so callers only ever see *Error values carrying a Kind.
//
// Key Components:
//   - Core: entry point owning the kernel handle table
//   - Handles and rights: Close, GetRights, Replace/Duplicate with reduced rights
//   - Waiting: Wait, WaitMany and wait sets
//   - Message pipes, data pipes, shared buffers, event pairs
//   - ProducerWriter / ConsumerReader: io adapters over data pipes
//
// Wait outcomes:
//   - satisfied: nil error
//   - the handle was closed while waiting: Cancelled
//   - the signals became unsatisfiable because the peer closed: Cancelled
//   - unsatisfiable for any other reason: FailedPrecondition
//   - deadline passed: DeadlineExceeded
//
// Example Usage:
//
//	core := system.NewCore()
//	a, b, _ := core.CreateMessagePipe(nil)
//	_ = core.WriteMessage(a, []byte("ping"), nil, system.WriteMessageFlagNone)
//	if _, err := core.Wait(b, system.SignalReadable, system.DeadlineIndefinite); err != nil {
//		return err
//	}
//	data, handles, err := core.ReadMessageAll(b)
package system
