package scenecast

import (
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
)

// SystemMetrics is the default MetricsProvider, backed by gopsutil. CPU
// usage is computed from cumulative counters between calls, so the first
// reading reports zero. GPU readings come from the host temperature sensors
// where exposed; on hosts without a readable GPU sensor they report zero,
// which live elements render as an empty value rather than failing.
type SystemMetrics struct {
	mu      sync.Mutex
	cpuName string
	gpuName string
}

// NewSystemMetrics probes the host once for the CPU model name and returns
// a ready provider. Probing errors degrade to empty names.
func NewSystemMetrics() *SystemMetrics {
	m := &SystemMetrics{}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		m.cpuName = strings.TrimSpace(infos[0].ModelName)
	}
	// Prime the usage counters so the second call returns a real delta.
	_, _ = cpu.Percent(0, false)
	return m
}

// CPUName returns the host CPU model name, or "".
func (m *SystemMetrics) CPUName() string {
	return m.cpuName
}

// PrimaryGPUName returns the detected GPU name, or "".
func (m *SystemMetrics) PrimaryGPUName() string {
	return m.gpuName
}

// CPUUsagePercent returns the CPU busy percentage since the previous call.
func (m *SystemMetrics) CPUUsagePercent() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return 0
	}
	return percents[0]
}

// GPUUsagePercent returns the GPU busy percentage. gopsutil exposes no
// portable GPU utilization counter, so this reports zero; callers needing
// real GPU load inject their own MetricsProvider.
func (m *SystemMetrics) GPUUsagePercent() float64 {
	return 0
}

// CPUTemperature returns the package temperature in °C from the host
// sensors, or zero if none is readable.
func (m *SystemMetrics) CPUTemperature() float64 {
	return sensorTemperature("coretemp", "k10temp", "cpu_thermal", "cpu-thermal")
}

// GPUTemperature returns the GPU temperature in °C from the host sensors,
// or zero if none is readable.
func (m *SystemMetrics) GPUTemperature() float64 {
	return sensorTemperature("amdgpu", "nouveau", "gpu_thermal", "gpu-thermal")
}

// sensorTemperature returns the first sensor reading whose key contains one
// of the given substrings.
func sensorTemperature(keys ...string) float64 {
	stats, err := host.SensorsTemperatures()
	if err != nil {
		return 0
	}
	for _, stat := range stats {
		key := strings.ToLower(stat.SensorKey)
		for _, want := range keys {
			if strings.Contains(key, want) && stat.Temperature > 0 {
				return stat.Temperature
			}
		}
	}
	return 0
}

// ReadSample takes one full reading from the provider.
func ReadSample(p MetricsProvider) Sample {
	return Sample{
		CPU:     p.CPUUsagePercent(),
		GPU:     p.GPUUsagePercent(),
		CPUTemp: p.CPUTemperature(),
		GPUTemp: p.GPUTemperature(),
		Now:     time.Now(),
	}
}
