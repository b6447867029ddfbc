// Package viz renders vector runs in the terminal.
//
// The package provides:
//
//   - [RenderSlots]: a one-line picture of live and spare slots
//   - [Sparkline] and [FillBar]: compact inline charts for reports
//   - [Model]: a Bubble Tea stepper that replays a run one op at a time
//
// # Key Bindings
//
//	→/n   - Next step
//	←/p   - Previous step
//	Home  - First step
//	End   - Last step
//	Space - Play/Pause
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
