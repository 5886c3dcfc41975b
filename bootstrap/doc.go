// Package bootstrap runs a voiceid command with a uniform lifecycle.
//
// NewApp applies config defaults, validates, and sets up the logger.
// RunTask starts the registered components in order, runs the configure
// callbacks, executes the task with a context canceled on SIGINT/SIGTERM,
// then stops everything in reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(storageComponent)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*AppConfig]) error {
//	    engine, err = buildEngine(ctx, a)
//	    return err
//	})
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return run(ctx, engine)
//	})
package bootstrap
