// Command tiltcheck runs the tilt analysis pipeline on a single image and
// prints the intermediate results.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/timdobras/Realtr-sub000/internal/imageio"
	"github.com/timdobras/Realtr-sub000/internal/lines"
	"github.com/timdobras/Realtr-sub000/internal/pixel"
	"github.com/timdobras/Realtr-sub000/internal/preprocess"
	"github.com/timdobras/Realtr-sub000/internal/rectify"
	"github.com/timdobras/Realtr-sub000/internal/tilt"
)

func main() {
	input := flag.String("i", "", "Path to input image")
	output := flag.String("o", "", "Write the corrected image here (optional)")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	showLines := flag.Bool("lines", false, "Print every classified line")
	flag.Parse()

	if *input == "" {
		fmt.Println("Usage: tiltcheck -i <image> [-o <corrected>] [-lines]")
		os.Exit(1)
	}

	img, err := imageio.Load(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}

	backend := pixel.Select()
	fmt.Printf("=== Preprocessing (%s backend) ===\n", backend.Name())

	focal := imageio.FocalLengthMm(*input)
	if focal > 0 {
		fmt.Printf("Focal length: %.1f mm (k1=%.3f)\n", focal, preprocess.LensCoefficient(focal))
	} else {
		fmt.Println("Focal length: unknown, no lens correction")
	}

	processed, err := preprocess.Run(img, focal, preprocess.DefaultParams(), backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Preprocessing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Working size: %dx%d\n", processed.Width, processed.Height)

	fmt.Printf("\n=== Line detection ===\n")
	segments := lines.Detect(processed, lines.DefaultDetectorParams())
	classified := lines.Classify(segments, processed.Width, processed.Height, lines.DefaultClassifierParams())
	vertical, horizontal := lines.Split(classified)
	fmt.Printf("Segments: %d detected, %d classified (%d vertical, %d horizontal)\n",
		len(segments), len(classified), len(vertical), len(horizontal))

	if *showLines {
		for _, c := range classified {
			fmt.Printf("  %-10s %-10s len=%6.1f tilt=%+6.2f° weight=%.0f\n",
				c.Orientation, c.Role, c.Segment.Length, c.TiltDegrees, c.Weight)
		}
	}

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewSource(*seed))
	}

	fmt.Printf("\n=== Tilt analysis ===\n")
	analysis := tilt.Analyze(classified, processed.Width, processed.Height, tilt.DefaultParams(), rng)
	fmt.Printf("Decision: %s (%s)\n", analysis.Decision, analysis.Reason)
	fmt.Printf("Vertical: angle=%+.2f° conf=%.2f inliers=%d stddev=%.2f°\n",
		analysis.Vertical.AngleDegrees, analysis.Vertical.Confidence,
		analysis.Vertical.InlierCount, analysis.Vertical.AngleStdDevDegrees)
	if analysis.VanishingPoint != nil {
		vp := analysis.VanishingPoint
		fmt.Printf("Vanishing point: (%.0f, %.0f) tilt=%+.2f° conf=%.2f pairs=%d\n",
			vp.Position.X, vp.Position.Y, vp.TiltAngleDegrees, vp.Confidence, vp.SupportingPairCount)
	} else {
		fmt.Println("Vanishing point: none")
	}
	fmt.Printf("Suggested rotation: %+.2f° (confidence %.2f)\n",
		analysis.SuggestedRotationDegrees, analysis.Confidence)

	if !analysis.NeedsCorrection {
		return
	}
	if *output == "" {
		fmt.Println("\nUse -o to write the corrected image.")
		return
	}

	corrected := rectify.Apply(img, analysis)
	if err := imageio.Save(corrected, *output, 95); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save corrected image: %v\n", err)
		os.Exit(1)
	}
	b := corrected.Bounds()
	fmt.Printf("\nWrote %s (%dx%d)\n", *output, b.Dx(), b.Dy())
}
