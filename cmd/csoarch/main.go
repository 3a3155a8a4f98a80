package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/csoarchive/csoarchive/pkg/nar"
	"github.com/csoarchive/csoarchive/pkg/pak"
)

func main() {
	extractDir := flag.String("extract", "", "Extract all entries into the given directory")
	verify := flag.Bool("verify", false, "Verify entry checksums (NAR only) instead of listing")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Println("Usage: csoarch [-extract dir] [-verify] <file.nar|file.pak>")
		return
	}

	inputFile := args[0]
	var ok bool
	switch strings.ToLower(filepath.Ext(inputFile)) {
	case ".nar":
		ok = runNar(inputFile, *extractDir, *verify)
	case ".pak":
		ok = runPak(inputFile, *extractDir)
	default:
		fmt.Printf("Unrecognized extension for %s (expected .nar or .pak)\n", inputFile)
	}
	if !ok {
		os.Exit(1)
	}
}

func runNar(path, extractDir string, verify bool) bool {
	a, err := nar.Open(path)
	if err != nil {
		fmt.Printf("Error opening %s: %v\n", path, err)
		return false
	}
	defer a.Close()

	fmt.Printf("%s: %d entries\n", path, len(a.Entries()))

	if verify {
		bad, err := a.VerifyAll()
		if err != nil {
			fmt.Printf("Error verifying: %v\n", err)
			return false
		}
		if bad == "" {
			fmt.Println("All entries verified OK.")
		} else {
			fmt.Printf("Checksum mismatch: %s\n", bad)
		}
		return bad == ""
	}

	for _, e := range a.Entries() {
		fmt.Printf("%-40s %10d -> %10d  %s\n", e.Path, e.StoredSize, e.ExtractedSize, e.StoredType)
	}

	if extractDir == "" {
		return true
	}
	ok := true
	for _, e := range a.Entries() {
		if err := extractNarEntry(extractDir, e); err != nil {
			fmt.Printf("Error extracting %s: %v\n", e.Path, err)
			ok = false
		}
	}
	return ok
}

func extractNarEntry(dir string, e *nar.Entry) error {
	dest := filepath.Join(dir, filepath.FromSlash(e.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	return e.Extract(out)
}

func runPak(path, extractDir string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", path, err)
		return false
	}

	a, err := pak.Open(filepath.Base(path), data)
	if err != nil {
		fmt.Printf("Error opening %s: %v\n", path, err)
		return false
	}

	fmt.Printf("%s: %d entries\n", path, len(a.Entries()))
	for _, e := range a.Entries() {
		fmt.Printf("%-40s %10d -> %10d  %s\n", e.Path, e.PackedSize, e.OriginalSize, e.Type)
	}

	if extractDir == "" {
		return true
	}
	ok := true
	for _, e := range a.Entries() {
		if err := extractPakEntry(extractDir, a, e); err != nil {
			fmt.Printf("Error extracting %s: %v\n", e.Path, err)
			ok = false
		}
	}
	return ok
}

func extractPakEntry(dir string, a *pak.Archive, e *pak.Entry) error {
	out, err := a.Extract(e)
	if err != nil {
		return err
	}
	dest := filepath.Join(dir, filepath.FromSlash(e.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, out, 0o644)
}
