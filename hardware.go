package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// HardwareInfo describes the machine a sweep ran on. Throughput numbers are
// meaningless without it.
type HardwareInfo struct {
	OS            string  `json:"os"`
	Arch          string  `json:"arch"`
	CPUModel      string  `json:"cpu_model"`
	LogicalCores  int     `json:"logical_cores"`
	PhysicalCores int     `json:"physical_cores"`
	MHz           float64 `json:"mhz"`
	MemoryGB      float64 `json:"memory_gb"`
	GoVersion     string  `json:"go_version"`
}

// DetectHardware gathers information about the current system. Fields that
// cannot be read are left at their runtime-derived defaults.
func DetectHardware() HardwareInfo {
	info := HardwareInfo{
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		CPUModel:     "Unknown",
		LogicalCores: runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		if infos[0].ModelName != "" {
			info.CPUModel = infos[0].ModelName
		}
		info.MHz = infos[0].Mhz
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		info.LogicalCores = n
	}
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		info.PhysicalCores = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemoryGB = float64(vm.Total) / (1 << 30)
	}

	return info
}

// Print writes a human-readable description of hw.
func (hw HardwareInfo) Print(w io.Writer) {
	fmt.Fprintf(w, "Operating System: %s\n", hw.OS)
	fmt.Fprintf(w, "Architecture:     %s\n", hw.Arch)
	fmt.Fprintf(w, "CPU Model:        %s\n", hw.CPUModel)
	fmt.Fprintf(w, "CPU Cores:        %d logical", hw.LogicalCores)
	if hw.PhysicalCores > 0 {
		fmt.Fprintf(w, ", %d physical", hw.PhysicalCores)
	}
	fmt.Fprintln(w)
	if hw.MHz > 0 {
		fmt.Fprintf(w, "Clock:            %.0f MHz\n", hw.MHz)
	}
	if hw.MemoryGB > 0 {
		fmt.Fprintf(w, "Memory:           %.1f GB\n", hw.MemoryGB)
	}
	fmt.Fprintf(w, "Go:               %s\n", hw.GoVersion)
}
