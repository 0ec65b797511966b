//go:build tools

// Package fakefetch pins the code generators of this module.
// mockgen regenerates mocks/ through the go:generate directives.
package fakefetch

import (
	_ "go.uber.org/mock/mockgen"
)
