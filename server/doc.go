// Package server hosts the trigger endpoint of the segmentation service. The
// object store posts an event here when a new upload lands; the server
// filters out non-video objects and pipeline output, then starts a pipeline
// job in the background and acknowledges the event immediately.
//
// The HTTP stack is Gin mounted on a ServeMux behind an h2c wrapper, so
// additional http.Handler mounts share the same port.
package server
