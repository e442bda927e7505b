package application

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	metering "evse-cloud/internal/metering/domain"
)

// Chart names a dashboard chart type.
type Chart string

const (
	ChartPower   Chart = "power"
	ChartEnergy  Chart = "energy"
	ChartCurrent Chart = "current"
	ChartVoltage Chart = "voltage"
	ChartSoC     Chart = "soc"
)

// ErrUnknownChart is returned when a chart has no preset.
var ErrUnknownChart = errors.New("metering: unknown chart")

// ChartPreset is the measurand and accepted reading contexts for one chart.
type ChartPreset struct {
	Measurand metering.Measurand
	Contexts  metering.ContextSet
}

// Presets maps charts to their presets.
type Presets map[Chart]ChartPreset

// Lookup returns the preset for a chart.
func (p Presets) Lookup(chart Chart) (ChartPreset, error) {
	preset, ok := p[chart]
	if !ok {
		return ChartPreset{}, fmt.Errorf("%w: %q", ErrUnknownChart, chart)
	}
	return preset, nil
}

// Charts lists configured chart names in sorted order.
func (p Presets) Charts() []Chart {
	charts := make([]Chart, 0, len(p))
	for chart := range p {
		charts = append(charts, chart)
	}
	sort.Slice(charts, func(i, j int) bool { return charts[i] < charts[j] })
	return charts
}

// DefaultPresets returns the built-in chart presets.
func DefaultPresets() Presets {
	sampled := []metering.ReadingContext{
		metering.ContextSamplePeriodic,
		metering.ContextTransactionBegin,
		metering.ContextTransactionEnd,
	}
	return Presets{
		ChartPower:   {Measurand: metering.MeasurandPowerActiveImport, Contexts: metering.NewContextSet(sampled...)},
		ChartEnergy:  {Measurand: metering.MeasurandEnergyActiveImport, Contexts: metering.NewContextSet(append(sampled, metering.ContextSampleClock)...)},
		ChartCurrent: {Measurand: metering.MeasurandCurrentImport, Contexts: metering.NewContextSet(sampled...)},
		ChartVoltage: {Measurand: metering.MeasurandVoltage, Contexts: metering.NewContextSet(sampled...)},
		ChartSoC:     {Measurand: metering.MeasurandStateOfCharge, Contexts: metering.NewContextSet(sampled...)},
	}
}

type presetsFile struct {
	Charts map[string]presetEntry `yaml:"charts"`
}

type presetEntry struct {
	Measurand string   `yaml:"measurand"`
	Contexts  []string `yaml:"contexts"`
}

// LoadPresets returns the default presets, overridden by the YAML file at path when set.
func LoadPresets(path string) (Presets, error) {
	presets := DefaultPresets()
	if path == "" {
		return presets, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePresets(data, presets)
}

// ParsePresets applies YAML chart overrides on top of base.
func ParsePresets(data []byte, base Presets) (Presets, error) {
	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("metering presets: %w", err)
	}

	result := make(Presets, len(base)+len(file.Charts))
	for chart, preset := range base {
		result[chart] = preset
	}
	for name, entry := range file.Charts {
		if name == "" {
			return nil, errors.New("metering presets: empty chart name")
		}
		chart := Chart(name)
		preset := result[chart]

		if entry.Measurand != "" {
			m, ok := metering.ParseMeasurand(entry.Measurand)
			if !ok {
				return nil, fmt.Errorf("metering presets: chart %s: unknown measurand %q", name, entry.Measurand)
			}
			preset.Measurand = m
		}
		if preset.Measurand == "" {
			return nil, fmt.Errorf("metering presets: chart %s: measurand required", name)
		}
		if len(entry.Contexts) > 0 {
			contexts := make([]metering.ReadingContext, 0, len(entry.Contexts))
			for _, raw := range entry.Contexts {
				c, ok := metering.ParseReadingContext(raw)
				if !ok || c == metering.ContextNone {
					return nil, fmt.Errorf("metering presets: chart %s: unknown context %q", name, raw)
				}
				contexts = append(contexts, c)
			}
			preset.Contexts = metering.NewContextSet(contexts...)
		}
		result[chart] = preset
	}
	return result, nil
}
