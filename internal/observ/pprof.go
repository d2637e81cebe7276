package observ

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// PprofConfig names the Go profiles to record; empty paths are skipped.
type PprofConfig struct {
	CPUPath  string
	HeapPath string
}

// StartPprof starts the CPU profile of cfg and returns a stop function that
// ends it and writes the heap profile. stop is safe to call more than once.
func StartPprof(cfg PprofConfig) (stop func() error, err error) {
	var cpu *os.File
	if cfg.CPUPath != "" {
		cpu, err = os.Create(cfg.CPUPath)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(cpu); err != nil {
			_ = cpu.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
	}
	stopped := false
	return func() error {
		if stopped {
			return nil
		}
		stopped = true
		var errs []error
		if cpu != nil {
			pprof.StopCPUProfile()
			errs = append(errs, cpu.Close())
		}
		if cfg.HeapPath != "" {
			errs = append(errs, writeHeap(cfg.HeapPath))
		}
		return errors.Join(errs...)
	}, nil
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
