package pipeline

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shader.wgsl
var shaderSource string

// ShaderSource returns the WGSL source of the fractal shader.
func ShaderSource() string {
	return shaderSource
}

// CompileSPIRV compiles WGSL source to SPIR-V words.
// SPIR-V is little-endian 32-bit words.
func CompileSPIRV(wgsl string) ([]uint32, error) {
	code, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compile shader: %w", err)
	}
	if len(code)%4 != 0 {
		return nil, errors.New("pipeline: SPIR-V output not aligned to 4 bytes")
	}

	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = uint32(code[i*4]) |
			uint32(code[i*4+1])<<8 |
			uint32(code[i*4+2])<<16 |
			uint32(code[i*4+3])<<24
	}
	return words, nil
}
