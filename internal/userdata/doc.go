// Package userdata resolves where pkglink keeps its state (the link store
// and the action journal under ~/.pkglink) and runs the doctor checks over
// that state.
package userdata
