// Package shaders embeds the WGSL sources for the post-process chain
// (extract, downsample, upsample, composite, CRT), the way
// voxelrt/rt/shaders embeds its own .wgsl files instead of inlining source
// strings in Go.
package shaders

import _ "embed"

//go:embed extract.wgsl
var ExtractWGSL string

//go:embed downsample.wgsl
var DownsampleWGSL string

//go:embed upsample.wgsl
var UpsampleWGSL string

//go:embed composite.wgsl
var CompositeWGSL string

//go:embed crt.wgsl
var CRTWGSL string
