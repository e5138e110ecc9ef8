// Package viz renders contracts, traces and gate reports for the terminal.
//
//   - [Canvas]: Braille dot canvas, 2x4 dots per cell
//   - [Scene]: draws bodies, surfaces and springs of one trace frame
//   - [Replay]: Bubble Tea model that plays a stored trace back
//   - [Styles]: lipgloss rendering of reports, issues and run tables
//
// # Key Bindings
//
//	Space - Pause/Resume
//	←/→   - Step one frame
//	+/-   - Double/halve playback speed
//	R     - Restart
//	Q     - Quit
package viz
