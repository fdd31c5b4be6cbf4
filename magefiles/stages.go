//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Scrape downloads the OSTI listing and the DataSpace community.
func Scrape() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "scrape")
}

// Reconcile finds the DataSpace items missing from OSTI.
func Reconcile() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "reconcile")
}

// Form regenerates the entry form and syncs the form input.
func Form() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "form", "--seed")
}

// Pipeline runs scrape, reconcile, and form.
func Pipeline() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath(), "pipeline", "--seed")
}

// DryRun builds and validates the payload and answers with a synthetic
// response. Nothing is sent to OSTI.
func DryRun() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "post", "--mode", "dry-run")
}
