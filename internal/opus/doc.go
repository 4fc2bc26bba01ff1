// Package opus transcodes arbitrary audio streams to Opus frames for
// Discord voice playback.
//
// Transcode pipes the source through FFmpeg and splits its Ogg output into
// discrete Opus packets, delivered as length-prefixed frames
// ([uint16 LE length][opus bytes]). FrameReader reads the frames back one
// at a time for sending on a voice connection.
package opus
