package engine

import (
	"math"
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/dsp"
	"github.com/oszuidwest/zwfm-ledsync/internal/types"
)

// Level mapping and silence decay constants.
const (
	silenceRMS     = 0.003
	volumeRef      = 0.10
	energyRef      = 0.07
	rmsHistorySize = 200
	rmsMaxEpsilon  = 0.001

	volumeAlpha = 0.30
	vnormAlpha  = 0.35
	energyAlpha = 0.20
	fluxAlpha   = 0.25

	decayLevel  = 0.85 // volume, normalized volume, bands and flux
	decayEnergy = 0.90
	decayBeat   = 0.80

	minDB = -60.0
)

// AnalyzerConfig is the fully resolved configuration of one analysis
// session. It is built once when the engine starts.
type AnalyzerConfig struct {
	SampleRate      int
	HopSize         int
	WindowSize      int
	Mode            types.DetectionMode
	Drums           dsp.DrumPreset
	Peaks           dsp.PeakPreset
	PeakMinInterval float64 // Seconds
	AGC             dsp.AGCConfig
	Compressor      dsp.CompressorConfig
	Smoothing       dsp.SmootherConfig
	Floor           dsp.FloorConfig
	Curve           dsp.Curve
	Shapes          [3]dsp.BandShape // Indexed by dsp.Band
	Fusion          dsp.FusionConfig
}

// DefaultAnalyzerConfig returns the tuned defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		SampleRate:      types.SampleRate,
		HopSize:         types.HopSize,
		WindowSize:      types.WindowSize,
		Mode:            types.ModeBoth,
		Drums:           dsp.DrumPresetFor(dsp.SensitivityMedium, dsp.DefaultCustomDrumPreset),
		Peaks:           dsp.PeakPresetFor(dsp.SensitivityMedium),
		PeakMinInterval: 0.04,
		AGC:             dsp.DefaultAGCConfig(),
		Compressor:      dsp.DefaultCompressorConfig(),
		Smoothing:       dsp.DefaultSmootherConfig(),
		Floor:           dsp.DefaultFloorConfig(),
		Curve:           dsp.CurveLinear,
		Shapes:          dsp.DefaultBandShapes(),
		Fusion:          dsp.DefaultFusionConfig(),
	}
}

// Analyzer runs the per-frame pipeline. It is owned by the capture goroutine
// and is not safe for concurrent use.
type Analyzer struct {
	cfg AnalyzerConfig

	spectrum   *dsp.Spectrum
	weights    *dsp.BandWeights
	normalizer *dsp.Normalizer
	agc        *dsp.AGC
	floor      *dsp.DynamicFloor
	chains     [3]*dsp.BandChain
	drums      *dsp.DrumDetector
	peaks      *dsp.PeakDetector
	fusion     *dsp.Fusion
	rmsHistory *dsp.History
	scaled     []float64

	volume float64
	vnorm  float64
	energy float64
	flux   float64
	bands  [3]float64 // Published band values, after the floor
	frames uint64

	kicks, snares, peakHits uint64
}

// NewAnalyzer builds a pipeline for cfg.
func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	drums, err := dsp.NewDrumDetector(cfg.HopSize, cfg.WindowSize, cfg.SampleRate, cfg.Drums)
	if err != nil {
		return nil, err
	}
	peaks, err := dsp.NewPeakDetector(cfg.HopSize, cfg.WindowSize, cfg.SampleRate, cfg.Peaks, cfg.PeakMinInterval)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:        cfg,
		spectrum:   dsp.NewSpectrum(cfg.HopSize),
		weights:    dsp.NewBandWeights(cfg.HopSize, cfg.SampleRate),
		normalizer: dsp.NewNormalizer(),
		agc:        dsp.NewAGC(cfg.AGC),
		floor:      dsp.NewDynamicFloor(cfg.Floor),
		drums:      drums,
		peaks:      peaks,
		fusion:     dsp.NewFusion(cfg.Fusion),
		rmsHistory: dsp.NewHistory(rmsHistorySize),
		scaled:     make([]float64, cfg.HopSize),
	}
	comp := dsp.NewCompressor(cfg.Compressor)
	for b := range a.chains {
		a.chains[b] = dsp.NewBandChain(cfg.Curve, cfg.Shapes[b], comp, cfg.Smoothing)
	}
	return a, nil
}

// Process analyzes one frame captured at now and returns the resulting
// snapshot. Frames under the silence level decay the previous state. Frames
// of the wrong length are discarded and leave the state unchanged.
func (a *Analyzer) Process(frame []float64, now time.Time) types.Snapshot {
	if len(frame) != a.cfg.HopSize {
		return a.snapshot(now, 0, 0)
	}

	rms := dsp.RMS(frame)
	peak := peakAbs(frame)
	if rms < silenceRMS {
		a.Decay()
		return a.snapshot(now, rms, peak)
	}
	a.frames++

	a.rmsHistory.Push(rms)
	rmsMax := a.rmsHistory.Max()

	a.volume = smooth(a.volume, math.Min(1, rms/volumeRef), volumeAlpha)
	var vnormTarget float64
	if rmsMax > rmsMaxEpsilon {
		vnormTarget = math.Min(1, rms/rmsMax)
	}
	a.vnorm = smooth(a.vnorm, vnormTarget, vnormAlpha)
	a.energy = smooth(a.energy, math.Min(1, rms/energyRef), energyAlpha)

	mag := a.spectrum.Compute(frame)
	a.flux = smooth(a.flux, a.spectrum.Flux(), fluxAlpha)

	a.processBands(mag)
	a.detectOnsets(frame, rmsMax, now)

	return a.snapshot(now, rms, peak)
}

func (a *Analyzer) processBands(mag []float64) {
	perc, bass, mel := a.weights.Apply(mag)
	ref := a.normalizer.Observe(perc, bass, mel, a.agc.Gain())
	a.agc.Process(a.energy)

	raw := [3]float64{
		dsp.Percussion: dsp.Normalize(perc, ref),
		dsp.Bass:       dsp.Normalize(bass, ref),
		dsp.Melody:     dsp.Normalize(mel, ref),
	}
	floor := a.floor.Floor(a.vnorm)
	for b, chain := range a.chains {
		v := chain.Process(raw[b], a.vnorm)
		a.bands[b] = a.floor.Lift(v, floor, a.vnorm)
	}
}

func (a *Analyzer) detectOnsets(frame []float64, rmsMax float64, now time.Time) {
	input := frame
	if rmsMax > rmsMaxEpsilon {
		scale := 1 / (2 * rmsMax)
		for i, s := range frame {
			a.scaled[i] = max(-1, min(1, s*scale))
		}
		input = a.scaled
	}

	var peak dsp.PeakHit
	var drums dsp.DrumHit
	if a.cfg.Mode.Peaks() {
		peak = a.peaks.Process(input)
	}
	if a.cfg.Mode.Drums() {
		drums = a.drums.Process(input)
	}

	det := dsp.Decide(peak, drums)
	switch det.State {
	case types.OnsetKick:
		a.kicks++
	case types.OnsetSnare:
		a.snares++
	case types.OnsetPeak:
		a.peakHits++
	}
	a.fusion.Update(det, now)
}

// Decay fades every published value toward zero for a silent frame.
func (a *Analyzer) Decay() {
	a.volume = snap(a.volume * decayLevel)
	a.vnorm = snap(a.vnorm * decayLevel)
	a.decayRest()
}

// Mute zeroes the volume outputs and decays the rest. It is used while the
// followed application is known to be silent.
func (a *Analyzer) Mute(now time.Time) types.Snapshot {
	a.volume = 0
	a.vnorm = 0
	a.decayRest()
	return a.snapshot(now, 0, 0)
}

func (a *Analyzer) decayRest() {
	a.energy = snap(a.energy * decayEnergy)
	a.flux = snap(a.flux * decayLevel)
	for b, chain := range a.chains {
		chain.Decay(decayLevel)
		a.bands[b] = snap(a.bands[b] * decayLevel)
	}
	a.fusion.DecayBeat(decayBeat)
}

// Reset returns the analyzer to its initial state.
func (a *Analyzer) Reset() {
	a.spectrum.Reset()
	a.normalizer.Reset()
	a.agc.Reset()
	a.floor.Reset()
	for _, chain := range a.chains {
		chain.Reset()
	}
	a.drums.Reset()
	a.peaks.Reset()
	a.fusion.Reset()
	a.rmsHistory.Reset()
	a.volume, a.vnorm, a.energy, a.flux = 0, 0, 0, 0
	a.bands = [3]float64{}
	a.frames = 0
	a.kicks, a.snares, a.peakHits = 0, 0, 0
}

// Counts returns the number of kick, snare and peak detections so far.
func (a *Analyzer) Counts() (kicks, snares, peaks uint64) {
	return a.kicks, a.snares, a.peakHits
}

func (a *Analyzer) snapshot(now time.Time, rms, peak float64) types.Snapshot {
	state := a.fusion.State(now)
	var intensity float64
	if state != types.OnsetIdle {
		intensity = a.fusion.Intensity()
	}
	return types.Snapshot{
		State:            state,
		Intensity:        intensity,
		Volume:           a.volume,
		VolumeNormalized: a.vnorm,
		Energy:           a.energy,
		SpectralFlux:     a.flux,
		BeatIntensity:    a.fusion.Beat(),
		Percussion:       a.bands[dsp.Percussion],
		Bass:             a.bands[dsp.Bass],
		Melody:           a.bands[dsp.Melody],
		AGCGain:          a.agc.Gain(),
		RMSDB:            toDB(rms),
		PeakDB:           toDB(peak),
		Frames:           a.frames,
		LastHit:          a.fusion.LastHit(),
	}
}

func smooth(prev, target, alpha float64) float64 {
	return prev + (target-prev)*alpha
}

// snap zeroes values that have decayed below display resolution.
func snap(v float64) float64 {
	if v < 1e-4 {
		return 0
	}
	return v
}

func peakAbs(x []float64) float64 {
	var p float64
	for _, v := range x {
		p = max(p, math.Abs(v))
	}
	return p
}

func toDB(linear float64) float64 {
	if linear <= 0 {
		return minDB
	}
	return max(20*math.Log10(linear), minDB)
}
