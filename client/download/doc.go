// Package download saves gem archives fetched from the registry.
//
// An [Archive] names the release and carries the SHA-256 digest the
// registry lists for it. [Handle] streams a response body into a temp file
// named after the archive and renames it into place once the length and
// digest check out:
//
//	a := download.Archive{Name: "rails", Version: "7.1.0", SHA256: v.SHA}
//	path, err := download.Handle(ctx, resp.Body, resp.ContentLength, a, "vendor/cache", logger)
//
// Failed checks return an [*IntegrityError]; a body that can't be read
// returns a [*TransferError].
//
// Most callers reach it through [github.com/adamwoolhether/gems.Client.Fetch].
package download
