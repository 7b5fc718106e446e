// Package coordinator drives the sync orchestrator in the background.
//
// The coordinator owns the only goroutine that touches the config set. It
// initializes the per-config status records, runs one tick immediately and
// then one tick per configured poll interval until stopped:
//
//   - every PreTickHook runs first, in registration order
//   - Orchestrator.Poll runs next, synchronously, so ticks never overlap
//   - Poll errors are logged and the loop continues
//
// Hosts use pre-tick hooks to apply changes to configs (for example
// re-enabling a suspended config once its settings are provided) without
// extra locking.
//
// # Usage Example
//
//	coord := coordinator.New(orchestrator, stateService, configSet, cfg,
//		coordinator.WithPreTickHook(reactivator.Apply))
//
//	go func() { _ = coord.Start(ctx) }()
//	...
//	_ = coord.Stop()
package coordinator
