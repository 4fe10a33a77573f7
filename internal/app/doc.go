// Package app wires autoprefix together: configuration, logging, the
// headless workspace and the activated autoprefixer extension.
//
// New bootstraps the components in dependency order and tears down the
// ones already started when a later one fails:
//
//	app, err := app.New(ctx, app.Options{ProjectDir: "."})
//	if err != nil {
//	    return err
//	}
//	defer app.Shutdown()
//
//	e, _ := app.Workspace().Open("site.css")
//	err = app.Workspace().Commands().Dispatch(ctx, autoprefixer.CommandRun, nil)
//
// Notifications raised by the extension are forwarded to the options'
// notification handler, if any.
package app
