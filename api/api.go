// Package api is the foreign-function boundary of the compiler: a string
// in, a result struct out, no panics across the boundary.
package api

import (
	"fmt"

	"memoc/internal/driver"
	"memoc/internal/version"
)

// CompileResult mirrors the embedding contract:
// compile(source, fileType) -> { code, success, error }.
type CompileResult struct {
	Code    string `json:"code"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Compile transforms one source file. fileType selects the parser dialect
// (js, jsx, ts, tsx); empty means js. Compilation is atomic: on failure
// Code is empty unless pass-through applies.
func Compile(source string, fileType string) CompileResult {
	return compile(source, fileType, false)
}

// CompileWithPassThrough returns the original source with Success=false
// when an unsupported construct is hit.
func CompileWithPassThrough(source string, fileType string) CompileResult {
	return compile(source, fileType, true)
}

func compile(source, fileType string, passThrough bool) (result CompileResult) {
	defer func() {
		if r := recover(); r != nil {
			result = CompileResult{Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	code, err := driver.CompileString(source, driver.Options{
		FileType:    fileType,
		PassThrough: passThrough,
	})
	if err != nil {
		return CompileResult{Code: code, Success: false, Error: err.Error()}
	}
	return CompileResult{Code: code, Success: true}
}

// Version returns the semver string of the compiler.
func Version() string {
	return version.String()
}
