package ebitenview

import (
	"fmt"
	"time"

	"roadviz/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
)

// pulseKage writes sin(Phase) mapped to [0, 1] into the red and green
// channels of every pixel: red holds the high byte, green the low byte.
var pulseKage = []byte(`//kage:unit pixels

package main

var Phase float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	v := clamp(sin(Phase)*0.5+0.5, 0.0, 1.0) * 255.0
	hi := floor(v)
	lo := v - hi
	return vec4(hi/255.0, lo, 0.0, 1.0)
}
`)

// ShaderPulse evaluates the pulse with a Kage fragment shader on a 1×1
// offscreen image. Pulse may only be called from Draw.
type ShaderPulse struct {
	shader *ebiten.Shader
	target *ebiten.Image
	pixels []byte
}

// NewShaderPulse compiles the kernel
func NewShaderPulse() (*ShaderPulse, error) {
	shader, err := ebiten.NewShader(pulseKage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", render.ErrPulseUnavailable, err)
	}
	return &ShaderPulse{
		shader: shader,
		target: ebiten.NewImage(1, 1),
		pixels: make([]byte, 4),
	}, nil
}

// ProbeShaderPulse adapts NewShaderPulse to render.SelectPulseSource
func ProbeShaderPulse() (render.PulseSource, error) {
	return NewShaderPulse()
}

// Name returns "kage"
func (p *ShaderPulse) Name() string { return "kage" }

// Pulse dispatches the kernel for t and reads the result back
func (p *ShaderPulse) Pulse(t time.Time) (v float64, err error) {
	if p.shader == nil {
		return 0, render.ErrPulseUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", render.ErrPulseUnavailable, r)
		}
	}()

	p.target.Clear()
	p.target.DrawRectShader(1, 1, p.shader, &ebiten.DrawRectShaderOptions{
		Uniforms: map[string]any{"Phase": float32(render.Phase(t))},
	})
	p.target.ReadPixels(p.pixels)
	return render.DecodePulse16(p.pixels[0], p.pixels[1]), nil
}

// Close releases the shader and its target
func (p *ShaderPulse) Close() error {
	if p.shader != nil {
		p.shader.Deallocate()
		p.target.Deallocate()
		p.shader = nil
	}
	return nil
}
