// Package control exposes the command feed over gRPC as the
// appmanager.Control service, using a JSON codec instead of generated
// protobuf stubs.
//
// Key Components:
//   - Service: ControlServer over a command feed and the manager
//   - NewServer: grpc.Server with the service registered
//   - Client: breaker-guarded client used by appsh
//
// Example Usage:
//
//	client, err := control.Dial("127.0.0.1:50310")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	_, err = client.Execute(ctx, "mojo:hello --verbose")
package control
