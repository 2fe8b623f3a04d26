//go:build !curvedebug

package diag

const checked = false
