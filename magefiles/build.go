//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

const (
	shaderSrcDir = "shaders"
	shaderOutDir = "assets/shaders"
	binary       = "bin/rendermatic"
)

type Build mg.Namespace

// Compiles the GLSL sources in shaders/ to SPIR-V in assets/shaders/.
func (Build) Shaders() error {
	return compileShaders()
}

// Builds the engine and the testbed into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", binary, "."), withStream())
	return err
}

// Runs every package's tests.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
