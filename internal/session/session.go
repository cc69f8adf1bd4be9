// Package session persists a prepared fuzzing session next to its staging
// root so it can be inspected later with `funstart show`.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"funstart/internal/buildpipeline"
	"funstart/internal/config"
)

// Current schema version - increment when Record changes incompatibly.
const schemaVersion uint16 = 1

// FileName is the record's name inside the staging root.
const FileName = "funstart-session.mp"

// ErrSchema is returned for records written by an incompatible version.
var ErrSchema = errors.New("unsupported session record schema")

// Record is the persisted form of a session.
type Record struct {
	Schema    uint16    `msgpack:"schema"`
	CreatedAt time.Time `msgpack:"created_at"`

	Arch     uint8    `msgpack:"arch"`
	Profile  string   `msgpack:"profile"`
	Branch   string   `msgpack:"branch"`
	Patches  []string `msgpack:"patches,omitempty"`
	Valgrind bool     `msgpack:"valgrind"`

	HostOS      string `msgpack:"host_os"`
	HostMachine string `msgpack:"host_machine"`
	HostNode    string `msgpack:"host_node"`

	Revision string `msgpack:"revision"`
	Hash     string `msgpack:"hash"`
	Tip      bool   `msgpack:"tip"`

	StagingRoot string `msgpack:"staging_root"`
	CompileDir  string `msgpack:"compile_dir"`
	LogPath     string `msgpack:"log_path"`

	Binary       string `msgpack:"binary"`
	BinaryFormat string `msgpack:"binary_format"`
	BinaryArch   uint8  `msgpack:"binary_arch"`
	BinaryDebug  bool   `msgpack:"binary_debug"`
	BinarySize   uint64 `msgpack:"binary_size"`

	Program string   `msgpack:"program"`
	Args    []string `msgpack:"args"`

	// Stage durations in nanoseconds keyed by stage name.
	Timings map[string]int64 `msgpack:"timings,omitempty"`
}

// New builds a record from a prepared session.
func New(cfg config.RunConfig, sess buildpipeline.Session, now time.Time) (*Record, error) {
	arch, err := safecast.Conv[uint8](int(cfg.Arch))
	if err != nil {
		return nil, fmt.Errorf("arch: %w", err)
	}
	binArch, err := safecast.Conv[uint8](sess.Build.Binary.Arch)
	if err != nil {
		return nil, fmt.Errorf("binary arch: %w", err)
	}
	size, err := safecast.Conv[uint64](sess.Build.Binary.Size)
	if err != nil {
		return nil, fmt.Errorf("binary size: %w", err)
	}
	rec := &Record{
		Schema:       schemaVersion,
		CreatedAt:    now.UTC(),
		Arch:         arch,
		Profile:      string(cfg.Profile),
		Branch:       string(cfg.Branch),
		Patches:      append([]string(nil), cfg.Patches...),
		Valgrind:     cfg.Valgrind,
		HostOS:       cfg.Host.OS,
		HostMachine:  cfg.Host.Machine,
		HostNode:     cfg.Host.Node,
		Revision:     sess.Revision.Number,
		Hash:         sess.Revision.Hash,
		Tip:          sess.Revision.Tip,
		StagingRoot:  sess.Staging.Root,
		CompileDir:   sess.Staging.CompileDir,
		LogPath:      sess.Staging.LogPath,
		Binary:       sess.Build.BinaryPath,
		BinaryFormat: sess.Build.Binary.Format,
		BinaryArch:   binArch,
		BinaryDebug:  sess.Build.Binary.Debug,
		BinarySize:   size,
		Program:      sess.Command.Program,
		Args:         sess.Command.Args(),
	}
	for _, st := range buildpipeline.Stages {
		if sess.Timings.Has(st) {
			if rec.Timings == nil {
				rec.Timings = make(map[string]int64)
			}
			rec.Timings[string(st)] = int64(sess.Timings.Duration(st))
		}
	}
	return rec, nil
}

// Path returns the record path for a staging root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Write stores rec at path, replacing any previous record atomically.
func Write(path string, rec *Record) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if removeErr := os.Remove(f.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) && err == nil {
			err = removeErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(rec); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode session: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Read loads the record at path.
func Read(path string) (*Record, error) {
	// #nosec G304 -- path is given by the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rec Record
	if err := msgpack.NewDecoder(f).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", path, err)
	}
	if rec.Schema != schemaVersion {
		return nil, fmt.Errorf("%s: %w (got %d, want %d)", path, ErrSchema, rec.Schema, schemaVersion)
	}
	return &rec, nil
}
