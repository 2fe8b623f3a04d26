//go:build curvedebug

package diag

const checked = true
