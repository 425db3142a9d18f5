package filter

import "github.com/hb9tf/spectrelay/sweep"

type Filterer interface {
	ShouldIgnore(*sweep.Sweep) bool
}

// Filter forwards sweeps from input to output unless any filter ignores them.
// output is closed once input is drained.
func Filter(input <-chan *sweep.Sweep, output chan<- *sweep.Sweep, filters []Filterer) error {
	defer close(output)
	for s := range input {
		skip := false
		for _, f := range filters {
			if f.ShouldIgnore(s) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		output <- s
	}
	return nil
}

// FilterEmpty ignores sweeps without a single usable sample.
type FilterEmpty struct{}

func (f *FilterEmpty) ShouldIgnore(s *sweep.Sweep) bool {
	return len(s.Samples) == 0
}

// FilterFreq ignores sweeps whose samples all lie outside [FreqLow, FreqHigh] MHz.
type FilterFreq struct {
	FreqHigh float64
	FreqLow  float64
}

func (f *FilterFreq) ShouldIgnore(s *sweep.Sweep) bool {
	for _, sample := range s.Samples {
		if sample.Frequency >= f.FreqLow && sample.Frequency <= f.FreqHigh {
			return false
		}
	}
	return true
}
