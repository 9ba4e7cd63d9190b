package review

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/RyanBlaney/notch-review/algorithms/spectral"
)

// Report is the result of reviewing one log
type Report struct {
	ID            string            `json:"id"`
	LogPath       string            `json:"log_path"`
	Generated     time.Time         `json:"generated"`
	Duration      time.Duration     `json:"duration"`
	FilterVersion int               `json:"filter_version"`
	Notches       []NotchSummary    `json:"notches"`
	Spectra       []SpectrumSummary `json:"spectra"`
	Metadata      map[string]any    `json:"metadata,omitempty"`
}

// NotchSummary describes the target frequency of one harmonic notch over
// the analysis time range
type NotchSummary struct {
	Index     int    `json:"index"`
	Source    string `json:"source"`
	Mode      int    `json:"mode"`
	Enabled   bool   `json:"enabled"`
	Dynamic   bool   `json:"dynamic"`
	Harmonics []int  `json:"harmonics"`
	Tracks    int    `json:"tracks"`

	Mean float64 `json:"mean_hz"`
	Min  float64 `json:"min_hz"`
	Max  float64 `json:"max_hz"`

	// SourceMean is the mean of the raw tracking value (RPM, throttle, Hz)
	SourceMean *float64 `json:"source_mean,omitempty"`

	// LoggedMean is the mean notch center logged by the flight controller
	LoggedMean *float64 `json:"logged_mean_hz,omitempty"`
}

// SpectrumSummary is the dominant peak of one gyro axis before and after the
// estimated filter chain
type SpectrumSummary struct {
	Gyro       int           `json:"gyro"`
	Axis       spectral.Axis `json:"axis"`
	Windows    int           `json:"windows"`
	WindowSize int           `json:"window_size"`
	SampleRate float64       `json:"sample_rate"`
	Unit       string        `json:"unit"`

	PeakHz                float64 `json:"peak_hz"`
	PeakAmplitude         float64 `json:"peak_amplitude"`
	FilteredPeakHz        float64 `json:"filtered_peak_hz"`
	FilteredPeakAmplitude float64 `json:"filtered_peak_amplitude"`

	// Filter response at PeakHz
	Attenuation float64 `json:"attenuation_db"`
	PhaseLag    float64 `json:"phase_lag_deg"`
}

func generateID(logPath string, samples int) string {
	hasher := sha256.New()
	fmt.Fprintf(hasher, "%d_%s_%d",
		time.Now().UnixNano(),
		logPath,
		samples)
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

// WriteJSON writes the report as indented JSON
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes a human readable summary
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Notch review %s\n", r.ID)
	if r.LogPath != "" {
		fmt.Fprintf(&b, "  log:            %s\n", r.LogPath)
	}
	fmt.Fprintf(&b, "  filter version: %d\n", r.FilterVersion)
	if r.Duration > 0 {
		fmt.Fprintf(&b, "  gyro duration:  %s\n", r.Duration.Round(time.Millisecond))
	}
	if n, ok := r.Metadata["gyro_samples"].(int); ok && n > 0 {
		fmt.Fprintf(&b, "  gyro samples:   %s\n", humanize.Comma(int64(n)))
	}

	b.WriteString("\nHarmonic notches\n")
	if len(r.Notches) == 0 {
		b.WriteString("  none configured\n")
	}
	for _, n := range r.Notches {
		fmt.Fprintf(&b, "  #%d %s", n.Index, n.Source)
		if !n.Enabled {
			b.WriteString(" (disabled)\n")
			if n.LoggedMean != nil {
				fmt.Fprintf(&b, "    logged %s mean\n", hz(*n.LoggedMean))
			}
			continue
		}
		if n.Dynamic {
			b.WriteString(" dynamic")
		}
		fmt.Fprintf(&b, " harmonics %v\n", n.Harmonics)
		if n.Tracks == 0 {
			b.WriteString("    no target data\n")
			continue
		}
		fmt.Fprintf(&b, "    target %s mean, %s to %s\n",
			hz(n.Mean), hz(n.Min), hz(n.Max))
		if n.SourceMean != nil {
			fmt.Fprintf(&b, "    source mean %s\n", humanize.FormatFloat("#,###.##", *n.SourceMean))
		}
		if n.LoggedMean != nil {
			fmt.Fprintf(&b, "    logged %s mean\n", hz(*n.LoggedMean))
		}
	}

	if len(r.Spectra) > 0 {
		b.WriteString("\nGyro spectra\n")
	}
	for _, s := range r.Spectra {
		fmt.Fprintf(&b, "  gyro %d %s: %d windows of %d at %s\n",
			s.Gyro, s.Axis, s.Windows, s.WindowSize, hz(s.SampleRate))
		fmt.Fprintf(&b, "    peak          %s at %s %s\n",
			hz(s.PeakHz), humanize.FormatFloat("#.###", s.PeakAmplitude), s.Unit)
		fmt.Fprintf(&b, "    filtered peak %s at %s %s\n",
			hz(s.FilteredPeakHz), humanize.FormatFloat("#.###", s.FilteredPeakAmplitude), s.Unit)
		fmt.Fprintf(&b, "    filter at peak %s dB, %s deg lag\n",
			humanize.FormatFloat("#.#", s.Attenuation), humanize.FormatFloat("#.#", s.PhaseLag))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func hz(v float64) string {
	return humanize.SIWithDigits(v, 2, "Hz")
}
