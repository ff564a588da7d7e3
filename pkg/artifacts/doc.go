// Package artifacts describes how build output is relocated into a serving bucket.
//
// A CopyConfiguration names a source (a bucket root, one object, or a zip archive), a copy
// mode that decides where the content lands in the destination bucket, and the extra files
// (injected artifacts and settings.json) written alongside the copied content.
package artifacts
