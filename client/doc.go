// Package client is the transport layer for the RubyGems registry API.
//
// # Building a Client
//
// Use [Build] with a [config.Config] and functional options:
//
//	c, err := client.Build(config.Current(),
//		client.WithTimeout(10*time.Second),
//		client.WithLogger(logger),
//	)
//
// # Making Calls
//
// A [Call] names the method, path, parameters and expected [Format].
// [Client.Do] builds the request with [NewRequest], maps the status with
// [CheckStatus] and decodes the body with [Decode]:
//
//	var gem map[string]any
//	err = c.Do(ctx, client.Call{Path: "gems/rails.json"}, &gem)
//
// Every returned error matches one of the Err* kinds via [errors.Is].
//
// # Downloading Archives
//
// [Client.Download] streams a gem archive to disk, checking it against the
// SHA-256 the registry lists for it when the [Archive] carries one:
//
//	a := client.Archive{Name: "rails", Version: "7.1.0", SHA256: v.SHA}
//	path, err := c.Download(ctx, call, a, "vendor/cache",
//		client.WithProgress(time.Second),
//	)
//
// For lower-level control see the
// [github.com/adamwoolhether/gems/client/download] package.
package client
