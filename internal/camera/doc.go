// Package camera runs one barcode capture session: it optionally waits for
// the video device to appear, enables the preview overlay for the camera
// module profile, streams scanner output through the ISBN extractor, and
// releases the scanner and overlay on every exit path.
//
// The scanner and overlay tools are reached through the Scanner and Overlay
// interfaces, implemented by the zbarcam and v4l2 service clients.
package camera
