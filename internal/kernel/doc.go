// Package kernel implements the native object model the IPC layer runs on.
//
// The kernel owns a handle table mapping small integer handles to kernel
// objects. Every handle carries a rights mask and every waitable object
// exposes a signal state made of the signals currently satisfied and the
// signals that could still become satisfied.
//
// Key Components:
//   - Kernel: handle table, close/duplicate/replace, waits
//   - Channels: bidirectional message queues carrying bytes and handles
//   - Data pipes: unidirectional byte streams with element granularity
//   - VMOs: shared byte buffers that can be mapped
//   - Event pairs: pairs of user-signalable objects
//   - Wait sets: cookie-keyed collections of (handle, signals) entries
//
// Operations report native Status codes. Callers above this package are
// expected to translate them into their own error taxonomy.
//
// Example Usage:
//
//	k := kernel.New()
//	a, b, _ := k.ChannelCreate()
//	k.ChannelWrite(a, []byte("hello"), nil)
//	state, st := k.WaitOne(b, kernel.SignalReadable, kernel.TimeInfinite)
package kernel
