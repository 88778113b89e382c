//go:build mage

// Package main provides build targets for cvtracker using Mage.
//
// Usage:
//
//	mage build      Compile the cvtracker binary to bin/
//	mage test       Run all tests with the race detector
//	mage cover      Run tests and write coverage.out
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install cvtracker to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo       = "go"
	binaryName  = "cvtracker"
	binaryDir   = "bin"
	cmdDir      = "./cmd/cvtracker"
	coverFile   = "coverage.out"
	versionFlag = "github.com/mesh-intelligence/cvtracker/internal/cli.Version"
)

// ldflags stamps the version from CVTRACKER_VERSION when it is set.
func ldflags() string {
	if v := os.Getenv("CVTRACKER_VERSION"); v != "" {
		return "-X " + versionFlag + "=" + v
	}
	return ""
}

// Build compiles the cvtracker binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests with the race detector.
func Test() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs all tests and writes a coverage profile.
func Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile", coverFile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", coverFile)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	_ = os.Remove(coverFile)
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), filepath.Join(binaryDir, binaryName))
}
