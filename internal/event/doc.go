// Package event provides the subscription primitives shared by the editor,
// the workspace and extensions.
//
// Every subscription is a Disposable. Owners collect the disposables they
// create in a CompositeDisposable and release them all at once:
//
//	subs := event.NewCompositeDisposable()
//	subs.Add(ws.ObserveTextEditors(onEditor))
//	subs.Add(ws.Commands().Add("workspace", "autoprefixer:run", run))
//	...
//	err := subs.Dispose() // errors from every member, combined
//
// Emitter[T] is a typed, synchronous event source. Handlers run in priority
// order (lower first, then registration order) on the emitting goroutine,
// and Emit reports the combined handler errors. A panicking handler is
// recovered and reported as ErrHandlerPanic.
package event
