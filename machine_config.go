// machine_config.go - Board configuration loading and validation

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TimerModuleConfig places one timer module on the bus.
type TimerModuleConfig struct {
	Name    string `yaml:"name"`
	Base    uint32 `yaml:"base"`
	IRQBase int    `yaml:"irq_base"`
}

// MachineConfig describes the emulated board. The zero value is not usable;
// start from DefaultMachineConfig or a YAML file.
type MachineConfig struct {
	MemorySize   uint32              `yaml:"memory_size"`
	TimerModules []TimerModuleConfig `yaml:"timer_modules"`
}

// DefaultMachineConfig reproduces the NPCM7xx layout: three timer modules
// at their datasheet base addresses, channels on GIC SPIs 32..46.
func DefaultMachineConfig() MachineConfig {
	cfg := MachineConfig{
		MemorySize: DEFAULT_MEMORY_SIZE,
	}
	bases := []uint32{TIM0_BASE, TIM1_BASE, TIM2_BASE}
	for i, base := range bases {
		cfg.TimerModules = append(cfg.TimerModules, TimerModuleConfig{
			Name:    fmt.Sprintf("tim%d", i),
			Base:    base,
			IRQBase: TIMER0_IRQ + i*TIMERS_PER_MODULE,
		})
	}
	return cfg
}

// LoadMachineConfig reads a board description from a YAML file. Fields left
// out of the file keep their defaults.
func LoadMachineConfig(path string) (MachineConfig, error) {
	cfg := DefaultMachineConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading machine config: %w", err)
	}

	// A file that names any timer module replaces the default set wholesale.
	var file MachineConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing machine config: %w", err)
	}
	if file.MemorySize != 0 {
		cfg.MemorySize = file.MemorySize
	}
	if len(file.TimerModules) > 0 {
		cfg.TimerModules = file.TimerModules
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the bus or interrupt controller cannot
// honour.
func (cfg *MachineConfig) Validate() error {
	if cfg.MemorySize == 0 || cfg.MemorySize%PAGE_SIZE != 0 {
		return fmt.Errorf("memory size 0x%x is not a positive multiple of 0x%x",
			cfg.MemorySize, PAGE_SIZE)
	}
	if len(cfg.TimerModules) == 0 {
		return fmt.Errorf("no timer modules configured")
	}

	seen := make(map[string]bool)
	for i, tm := range cfg.TimerModules {
		if tm.Name == "" {
			return fmt.Errorf("timer module %d has no name", i)
		}
		if seen[tm.Name] {
			return fmt.Errorf("duplicate timer module name %q", tm.Name)
		}
		seen[tm.Name] = true

		if tm.Base%TIMER_REGION_SIZE != 0 {
			return fmt.Errorf("%s: base 0x%08x not aligned to 0x%x",
				tm.Name, tm.Base, TIMER_REGION_SIZE)
		}
		if tm.Base < cfg.MemorySize {
			return fmt.Errorf("%s: base 0x%08x overlaps RAM", tm.Name, tm.Base)
		}
		if tm.IRQBase < 0 || tm.IRQBase+TIMERS_PER_MODULE > NUM_IRQ_LINES {
			return fmt.Errorf("%s: irq base %d out of range", tm.Name, tm.IRQBase)
		}

		for j, other := range cfg.TimerModules[:i] {
			if tm.Base == other.Base {
				return fmt.Errorf("%s and %s share base 0x%08x",
					tm.Name, cfg.TimerModules[j].Name, tm.Base)
			}
		}
	}
	return nil
}
