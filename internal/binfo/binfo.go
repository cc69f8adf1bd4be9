// Package binfo inspects built shell binaries.
package binfo

import (
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Info describes a binary.
type Info struct {
	Format string // elf, macho or pe
	Arch   int    // word size: 32 or 64
	Debug  bool   // built with debug symbols
	Size   int64
}

// Inspector reports what a binary was built as.
type Inspector interface {
	Inspect(path string) (Info, error)
}

// ObjectInspector reads object-file headers: the ELF class, Mach-O magic or
// PE machine gives the word size, and DWARF sections (or a .dSYM / .pdb
// companion) mark a debug build.
type ObjectInspector struct{}

// ErrUnknownFormat is returned for files that are not ELF, Mach-O or PE.
var ErrUnknownFormat = errors.New("unrecognized executable format")

// Inspect implements Inspector.
func (ObjectInspector) Inspect(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	info, err := inspectELF(path)
	if errors.Is(err, ErrUnknownFormat) {
		info, err = inspectMachO(path)
	}
	if errors.Is(err, ErrUnknownFormat) {
		info, err = inspectPE(path)
	}
	if err != nil {
		return Info{}, fmt.Errorf("inspect %s: %w", path, err)
	}
	info.Size = st.Size()
	return info, nil
}

func inspectELF(path string) (Info, error) {
	f, err := elf.Open(path)
	if err != nil {
		return Info{}, classify(err)
	}
	defer f.Close()
	info := Info{Format: "elf", Arch: 32}
	if f.Class == elf.ELFCLASS64 {
		info.Arch = 64
	}
	info.Debug = f.Section(".debug_info") != nil || f.Section(".zdebug_info") != nil
	return info, nil
}

func inspectMachO(path string) (Info, error) {
	f, err := macho.Open(path)
	if err != nil {
		if err = classify(err); !errors.Is(err, ErrUnknownFormat) {
			return Info{}, err
		}
		fat, fatErr := macho.OpenFat(path)
		if fatErr != nil {
			return Info{}, ErrUnknownFormat
		}
		defer fat.Close()
		if len(fat.Arches) == 0 {
			return Info{}, ErrUnknownFormat
		}
		return machOInfo(fat.Arches[0].File, path), nil
	}
	defer f.Close()
	return machOInfo(f, path), nil
}

func machOInfo(f *macho.File, path string) Info {
	info := Info{Format: "macho", Arch: 32}
	if f.Magic == macho.Magic64 {
		info.Arch = 64
	}
	info.Debug = f.Section("__debug_info") != nil || exists(path+".dSYM")
	return info
}

func inspectPE(path string) (Info, error) {
	f, err := pe.Open(path)
	if err != nil {
		return Info{}, ErrUnknownFormat
	}
	defer f.Close()
	info := Info{Format: "pe", Arch: 32}
	switch f.Machine {
	case pe.IMAGE_FILE_MACHINE_AMD64, pe.IMAGE_FILE_MACHINE_ARM64:
		info.Arch = 64
	}
	pdb := strings.TrimSuffix(path, ".exe") + ".pdb"
	info.Debug = f.Section(".debug_info") != nil || exists(pdb)
	return info, nil
}

// classify keeps filesystem errors and reports anything else from a header
// parser as an unknown format.
func classify(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return err
	}
	return ErrUnknownFormat
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
